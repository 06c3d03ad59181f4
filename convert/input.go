package convert

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mertwole/bencode-cli/bencode/codec_error"
	"github.com/mertwole/bencode-cli/bencode/text_encoding"
	"github.com/mertwole/bencode-cli/bencode/value"
)

var cborDecMode cbor.DecMode

func init() {
	var err error
	cborDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("convert: CBOR decoder initialization failed: " + err.Error())
	}
}

type options struct {
	encoding string
}

type Option func(*options)

// WithEncoding sets the encoding text strings are written in. The default is
// UTF-8.
func WithEncoding(name string) Option {
	return func(o *options) {
		o.encoding = name
	}
}

// reader turns parsed JSON, YAML or CBOR into a value tree whose strings
// are already projected into bytes.
type reader struct {
	textEncoding *text_encoding.TextEncoding
}

func newReader(opts []Option) (*reader, error) {
	o := options{encoding: text_encoding.DefaultName}
	for _, opt := range opts {
		opt(&o)
	}

	textEncoding, err := text_encoding.Lookup(o.encoding)
	if err != nil {
		return nil, codec_error.Wrap(codec_error.TextEncodingError, -1, err, "cannot use encoding %q", o.encoding)
	}

	return &reader{textEncoding: textEncoding}, nil
}

func (r *reader) text(text string) (value.ByteString, error) {
	encoded, err := r.textEncoding.Encode(text)
	if err != nil {
		return nil, codec_error.Wrap(codec_error.TextEncodingError, -1, err, "%q", text)
	}

	return value.ByteString(encoded), nil
}

func newDictionary(entries []value.Entry) (value.Dictionary, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, duplicate := seen[entry.Key]; duplicate {
			return value.Dictionary{}, codec_error.New(codec_error.InvalidDictKey, -1, "key %q appears more than once", entry.Key)
		}
		seen[entry.Key] = struct{}{}
	}

	return value.NewDictionary(entries...), nil
}

func boolean(flag bool) value.Integer {
	if flag {
		return value.NewInteger(1)
	}

	return value.NewInteger(0)
}

// FromJSON accepts JSON with comments and trailing commas. Keys starting
// with "$base64:" and {"$base64": "..."} objects carry raw bytes.
func FromJSON(data []byte, opts ...Option) (value.Value, error) {
	r, err := newReader(opts)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	var extra any
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse JSON: more than one value in input")
	}

	return r.fromJSONValue(raw)
}

func (r *reader) fromJSONValue(raw any) (value.Value, error) {
	switch raw := raw.(type) {
	case nil:
		return nil, codec_error.New(codec_error.UnsupportedType, -1, "null has no bencode representation")
	case bool:
		return boolean(raw), nil
	case string:
		return r.text(raw)
	case json.Number:
		n, ok := new(big.Int).SetString(raw.String(), 10)
		if !ok {
			return nil, codec_error.New(codec_error.UnsupportedType, -1, "%s is not an integer", raw)
		}
		return value.NewBigInteger(n), nil
	case []any:
		list := make(value.List, 0, len(raw))
		for i, element := range raw {
			converted, err := r.fromJSONValue(element)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element %d: %w", i, err)
			}
			list = append(list, converted)
		}
		return list, nil
	case map[string]any:
		if encoded, ok := raw[base64Key].(string); ok && len(raw) == 1 {
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s value: %w", base64Key, err)
			}
			return value.ByteString(decoded), nil
		}

		entries := make([]value.Entry, 0, len(raw))
		for key, element := range raw {
			keyBytes, err := r.jsonKey(key)
			if err != nil {
				return nil, err
			}

			converted, err := r.fromJSONValue(element)
			if err != nil {
				return nil, fmt.Errorf("failed to convert value for key %q: %w", key, err)
			}
			entries = append(entries, value.Entry{Key: string(keyBytes), Value: converted})
		}
		return newDictionary(entries)
	default:
		return nil, codec_error.New(codec_error.UnsupportedType, -1, "%T has no bencode representation", raw)
	}
}

func (r *reader) jsonKey(key string) ([]byte, error) {
	encoded, escaped := strings.CutPrefix(key, base64KeyPrefix)
	if !escaped {
		return r.text(key)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key %q: %w", key, err)
	}

	return decoded, nil
}

// FromYAML reads a single YAML document. !!binary scalars, keys included,
// become byte strings.
func FromYAML(data []byte, opts ...Option) (value.Value, error) {
	r, err := newReader(opts)
	if err != nil {
		return nil, err
	}

	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if document.Kind == 0 {
		return nil, fmt.Errorf("failed to parse YAML: empty document")
	}

	return r.fromYAMLNode(&document)
}

func (r *reader) fromYAMLNode(node *yaml.Node) (value.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) != 1 {
			return nil, fmt.Errorf("expected a single YAML document")
		}
		return r.fromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return r.fromYAMLNode(node.Alias)
	case yaml.ScalarNode:
		return r.fromYAMLScalar(node)
	case yaml.SequenceNode:
		list := make(value.List, 0, len(node.Content))
		for i, element := range node.Content {
			converted, err := r.fromYAMLNode(element)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element %d: %w", i, err)
			}
			list = append(list, converted)
		}
		return list, nil
	case yaml.MappingNode:
		entries := make([]value.Entry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]

			key, err := r.yamlKey(keyNode)
			if err != nil {
				return nil, err
			}

			converted, err := r.fromYAMLNode(valueNode)
			if err != nil {
				return nil, fmt.Errorf("failed to convert value for key %q: %w", keyNode.Value, err)
			}
			entries = append(entries, value.Entry{Key: string(key), Value: converted})
		}
		return newDictionary(entries)
	default:
		return nil, fmt.Errorf("unexpected YAML node kind %d", node.Kind)
	}
}

// yamlKey reads any scalar as text, so `1: a` has the key "1".
func (r *reader) yamlKey(node *yaml.Node) ([]byte, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, codec_error.New(codec_error.InvalidDictKey, -1, "line %d: dictionary keys must be scalars", node.Line)
	}

	if node.ShortTag() == "!!binary" {
		return yamlBinary(node)
	}

	return r.text(node.Value)
}

func (r *reader) fromYAMLScalar(node *yaml.Node) (value.Value, error) {
	switch node.ShortTag() {
	case "!!str":
		return r.text(node.Value)
	case "!!int":
		n, ok := new(big.Int).SetString(node.Value, 0)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid integer %q", node.Line, node.Value)
		}
		return value.NewBigInteger(n), nil
	case "!!bool":
		var flag bool
		if err := node.Decode(&flag); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return boolean(flag), nil
	case "!!binary":
		decoded, err := yamlBinary(node)
		if err != nil {
			return nil, err
		}
		return value.ByteString(decoded), nil
	default:
		return nil, codec_error.New(
			codec_error.UnsupportedType,
			-1,
			"line %d: %s value %q has no bencode representation",
			node.Line,
			node.ShortTag(),
			node.Value,
		)
	}
}

func yamlBinary(node *yaml.Node) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(node.Value)
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid !!binary value: %w", node.Line, err)
	}

	return decoded, nil
}

// FromCBOR keeps CBOR byte strings as they are and projects text strings
// through the configured encoding.
func FromCBOR(data []byte, opts ...Option) (value.Value, error) {
	r, err := newReader(opts)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := cborDecMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse CBOR: %w", err)
	}

	return r.fromCBORValue(raw)
}

func (r *reader) fromCBORValue(raw any) (value.Value, error) {
	switch raw := raw.(type) {
	case uint64:
		return value.NewBigInteger(new(big.Int).SetUint64(raw)), nil
	case int64:
		return value.NewInteger(raw), nil
	case big.Int:
		return value.NewBigInteger(&raw), nil
	case *big.Int:
		return value.NewBigInteger(raw), nil
	case bool:
		return boolean(raw), nil
	case []byte:
		return value.ByteString(raw), nil
	case string:
		return r.text(raw)
	case []any:
		list := make(value.List, 0, len(raw))
		for i, element := range raw {
			converted, err := r.fromCBORValue(element)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element %d: %w", i, err)
			}
			list = append(list, converted)
		}
		return list, nil
	case map[any]any:
		entries := make([]value.Entry, 0, len(raw))
		for key, element := range raw {
			var keyBytes []byte
			switch key := key.(type) {
			case string:
				encoded, err := r.text(key)
				if err != nil {
					return nil, err
				}
				keyBytes = encoded
			case cbor.ByteString:
				keyBytes = []byte(key)
			default:
				return nil, codec_error.New(codec_error.InvalidDictKey, -1, "CBOR map key %v (%T) is not a string", key, key)
			}

			converted, err := r.fromCBORValue(element)
			if err != nil {
				return nil, fmt.Errorf("failed to convert value for key %q: %w", keyBytes, err)
			}
			entries = append(entries, value.Entry{Key: string(keyBytes), Value: converted})
		}
		return newDictionary(entries)
	default:
		return nil, codec_error.New(codec_error.UnsupportedType, -1, "CBOR value %T has no bencode representation", raw)
	}
}
