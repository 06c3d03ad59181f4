// Package convert translates decoded bencode values to and from JSON, YAML
// and CBOR for the command-line tool.
//
// JSON and YAML have no byte string type, so byte strings that are not valid
// UTF-8 are written as {"$base64": "..."} objects in JSON and as !!binary
// scalars in YAML. In JSON such dictionary keys become "$base64:..." keys;
// keys that already start with "$base64" are escaped the same way, so a
// decoded dictionary never looks like a byte string object. CBOR keeps byte
// strings and big integers as they are.
//
// The From functions return value trees of raw bytes: text is projected
// through the encoding chosen with WithEncoding while converting.
package convert

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/mertwole/bencode-cli/bencode/value"
)

const (
	base64Key       = "$base64"
	base64KeyPrefix = base64Key + ":"
)

var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("convert: CBOR encoder initialization failed: " + err.Error())
	}
}

func ToJSON(writer io.Writer, decoded value.Value, compact bool) error {
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	if !compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(jsonValue(decoded)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}

	return nil
}

func ToYAML(writer io.Writer, decoded value.Value) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)

	if err := encoder.Encode(yamlNode(decoded)); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}

	return encoder.Close()
}

func ToCBOR(decoded value.Value) ([]byte, error) {
	encoded, err := cborEncMode.Marshal(cborValue(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR: %w", err)
	}

	return encoded, nil
}

func jsonValue(decoded value.Value) any {
	switch decoded := decoded.(type) {
	case value.Integer:
		return json.Number(decoded.String())
	case value.ByteString:
		if utf8.Valid(decoded) {
			return string(decoded)
		}
		return map[string]string{base64Key: base64.StdEncoding.EncodeToString(decoded)}
	case value.Text:
		return string(decoded)
	case value.List:
		list := make([]any, 0, len(decoded))
		for _, element := range decoded {
			list = append(list, jsonValue(element))
		}
		return list
	case value.Dictionary:
		dictionary := make(map[string]any, decoded.Len())
		for key, element := range decoded.All() {
			dictionary[jsonKey(key)] = jsonValue(element)
		}
		return dictionary
	default:
		return nil
	}
}

func jsonKey(key string) string {
	if utf8.ValidString(key) && !strings.HasPrefix(key, base64Key) {
		return key
	}

	return base64KeyPrefix + base64.StdEncoding.EncodeToString([]byte(key))
}

func yamlNode(decoded value.Value) *yaml.Node {
	switch decoded := decoded.(type) {
	case value.Integer:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: decoded.String()}
	case value.ByteString:
		return yamlBytes(decoded)
	case value.Text:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(decoded)}
	case value.List:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, element := range decoded {
			node.Content = append(node.Content, yamlNode(element))
		}
		return node
	case value.Dictionary:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for key, element := range decoded.All() {
			node.Content = append(node.Content, yamlBytes([]byte(key)), yamlNode(element))
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func yamlBytes(data []byte) *yaml.Node {
	if utf8.Valid(data) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(data)}
	}

	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(data)}
}

func cborValue(decoded value.Value) any {
	switch decoded := decoded.(type) {
	case value.Integer:
		if n, ok := decoded.Int64(); ok {
			return n
		}
		return decoded.Big()
	case value.ByteString:
		return []byte(decoded)
	case value.Text:
		return string(decoded)
	case value.List:
		list := make([]any, 0, len(decoded))
		for _, element := range decoded {
			list = append(list, cborValue(element))
		}
		return list
	case value.Dictionary:
		dictionary := make(map[any]any, decoded.Len())
		for key, element := range decoded.All() {
			if utf8.ValidString(key) {
				dictionary[key] = cborValue(element)
			} else {
				dictionary[cbor.ByteString(key)] = cborValue(element)
			}
		}
		return dictionary
	default:
		return nil
	}
}
