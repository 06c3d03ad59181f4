// Package encode turns values into their canonical bencoded form.
//
// Besides the value package's own types the encoder accepts plain Go data:
// integers of any width and *big.Int, bool (as 1 or 0), strings (as text in
// the configured encoding), []byte and [N]byte, slices and arrays, maps with
// string or byte-array keys and structs annotated with `bencode:"name"` tags.
package encode

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strconv"

	"github.com/mertwole/bencode-cli/bencode/codec_error"
	"github.com/mertwole/bencode-cli/bencode/text_encoding"
	"github.com/mertwole/bencode-cli/bencode/value"
)

const (
	fieldTag = "bencode"
	skipTag  = "-"

	integerStart    = 'i'
	listStart       = 'l'
	dictionaryStart = 'd'
	end             = 'e'
	lengthSeparator = ':'
)

var bigIntType = reflect.TypeOf(big.Int{})

// Encoder holds read-only configuration and is safe for concurrent use.
type Encoder struct {
	textEncoding *text_encoding.TextEncoding
	maxDepth     int
}

func New(opts ...Option) (*Encoder, error) {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	encoder := &Encoder{textEncoding: text_encoding.Default(), maxDepth: o.maxDepth}

	if o.encoding != "" {
		textEncoding, err := text_encoding.Lookup(o.encoding)
		if err != nil {
			return nil, codec_error.Wrap(codec_error.TextEncodingError, -1, err, "cannot use encoding %q", o.encoding)
		}
		encoder.textEncoding = textEncoding
	}

	return encoder, nil
}

func (e *Encoder) Encode(entity any) ([]byte, error) {
	var buffer bytes.Buffer
	if err := e.encode(&buffer, entity, 0); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// EncodeTo writes nothing when encoding fails.
func (e *Encoder) EncodeTo(writer io.Writer, entity any) error {
	encoded, err := e.Encode(entity)
	if err != nil {
		return err
	}

	_, err = writer.Write(encoded)
	if err != nil {
		return fmt.Errorf("failed to write encoded value: %w", err)
	}

	return nil
}

// EncodeInt treats nil as zero.
func (e *Encoder) EncodeInt(n *big.Int) []byte {
	var buffer bytes.Buffer
	writeBigInt(&buffer, n)

	return buffer.Bytes()
}

func (e *Encoder) EncodeBytes(data []byte) []byte {
	var buffer bytes.Buffer
	writeBytes(&buffer, data)

	return buffer.Bytes()
}

func (e *Encoder) EncodeStr(text string) ([]byte, error) {
	var buffer bytes.Buffer
	if err := e.writeText(&buffer, text); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func (e *Encoder) EncodeBool(flag bool) []byte {
	var buffer bytes.Buffer
	writeBool(&buffer, flag)

	return buffer.Bytes()
}

// EncodeList accepts value.List and any slice or array other than bytes.
func (e *Encoder) EncodeList(list any) ([]byte, error) {
	if _, ok := list.(value.List); !ok {
		kind := reflect.Indirect(reflect.ValueOf(list)).Kind()
		if (kind != reflect.Slice && kind != reflect.Array) || isByteSequence(reflect.Indirect(reflect.ValueOf(list)).Type()) {
			return nil, unsupported(list, "expected a list")
		}
	}

	return e.Encode(list)
}

// EncodeDict accepts value.Dictionary, maps and structs.
func (e *Encoder) EncodeDict(dictionary any) ([]byte, error) {
	if _, ok := dictionary.(value.Dictionary); !ok {
		target := reflect.Indirect(reflect.ValueOf(dictionary))
		if target.Kind() != reflect.Map && (target.Kind() != reflect.Struct || target.Type() == bigIntType) {
			return nil, unsupported(dictionary, "expected a dictionary")
		}
	}

	return e.Encode(dictionary)
}

func (e *Encoder) encode(buffer *bytes.Buffer, entity any, depth int) error {
	switch entity := entity.(type) {
	case nil:
		return codec_error.New(codec_error.UnsupportedType, -1, "nil has no bencode representation")
	case value.Integer:
		writeBigInt(buffer, entity.Big())
	case value.ByteString:
		writeBytes(buffer, entity)
	case value.Text:
		return e.writeText(buffer, string(entity))
	case value.List:
		return e.encodeValueList(buffer, entity, depth)
	case value.Dictionary:
		return e.encodeValueDictionary(buffer, entity, depth)
	case *big.Int:
		if entity == nil {
			return codec_error.New(codec_error.UnsupportedType, -1, "nil *big.Int")
		}
		writeBigInt(buffer, entity)
	case big.Int:
		writeBigInt(buffer, &entity)
	case bool:
		writeBool(buffer, entity)
	case string:
		return e.writeText(buffer, entity)
	case []byte:
		writeBytes(buffer, entity)
	default:
		return e.encodeReflected(buffer, reflect.ValueOf(entity), depth)
	}

	return nil
}

func (e *Encoder) encodeReflected(buffer *bytes.Buffer, entity reflect.Value, depth int) error {
	switch entity.Kind() {
	case reflect.Pointer, reflect.Interface:
		if entity.IsNil() {
			return codec_error.New(codec_error.UnsupportedType, -1, "nil %s has no bencode representation", entity.Type())
		}
		if err := e.checkDepth(depth + 1); err != nil {
			return err
		}
		return e.encode(buffer, entity.Elem().Interface(), depth+1)
	case reflect.Bool:
		writeBool(buffer, entity.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buffer.WriteByte(integerStart)
		buffer.WriteString(strconv.FormatInt(entity.Int(), 10))
		buffer.WriteByte(end)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buffer.WriteByte(integerStart)
		buffer.WriteString(strconv.FormatUint(entity.Uint(), 10))
		buffer.WriteByte(end)
	case reflect.String:
		return e.writeText(buffer, entity.String())
	case reflect.Slice, reflect.Array:
		if isByteSequence(entity.Type()) {
			writeBytes(buffer, byteSequence(entity))
			return nil
		}
		return e.encodeReflectedList(buffer, entity, depth)
	case reflect.Map:
		return e.encodeMap(buffer, entity, depth)
	case reflect.Struct:
		return e.encodeStruct(buffer, entity, depth)
	default:
		return unsupported(entity.Interface(), "")
	}

	return nil
}

func (e *Encoder) encodeValueList(buffer *bytes.Buffer, list value.List, depth int) error {
	if err := e.checkDepth(depth + 1); err != nil {
		return err
	}

	buffer.WriteByte(listStart)
	for i, element := range list {
		if err := e.encode(buffer, element, depth+1); err != nil {
			return fmt.Errorf("failed to encode list element %d: %w", i, err)
		}
	}
	buffer.WriteByte(end)

	return nil
}

func (e *Encoder) encodeReflectedList(buffer *bytes.Buffer, list reflect.Value, depth int) error {
	if err := e.checkDepth(depth + 1); err != nil {
		return err
	}

	buffer.WriteByte(listStart)
	for i := range list.Len() {
		if err := e.encodeElement(buffer, list.Index(i), depth+1); err != nil {
			return fmt.Errorf("failed to encode list element %d: %w", i, err)
		}
	}
	buffer.WriteByte(end)

	return nil
}

// Dictionary keys are written verbatim; they already are byte strings.
func (e *Encoder) encodeValueDictionary(buffer *bytes.Buffer, dictionary value.Dictionary, depth int) error {
	entries := make([]dictionaryEntry, 0, dictionary.Len())
	for key, element := range dictionary.All() {
		entries = append(entries, dictionaryEntry{key: []byte(key), value: element})
	}

	return e.writeDictionary(buffer, entries, depth)
}

func (e *Encoder) encodeMap(buffer *bytes.Buffer, dictionary reflect.Value, depth int) error {
	entries := make([]dictionaryEntry, 0, dictionary.Len())

	iterator := dictionary.MapRange()
	for iterator.Next() {
		key, err := e.projectKey(iterator.Key())
		if err != nil {
			return err
		}

		entries = append(entries, dictionaryEntry{key: key, value: iterator.Value()})
	}

	return e.writeDictionary(buffer, entries, depth)
}

func (e *Encoder) encodeStruct(buffer *bytes.Buffer, structure reflect.Value, depth int) error {
	structType := structure.Type()
	entries := make([]dictionaryEntry, 0, structType.NumField())

	for i := range structType.NumField() {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Tag.Get(fieldTag)
		if name == skipTag {
			continue
		}
		if name == "" {
			name = field.Name
		}

		fieldValue := structure.Field(i)
		if fieldValue.Kind() == reflect.Pointer && fieldValue.IsNil() {
			// Optional field.
			continue
		}

		key, err := e.textEncoding.Encode(name)
		if err != nil {
			return codec_error.Wrap(codec_error.TextEncodingError, -1, err, "field %s", field.Name)
		}

		entries = append(entries, dictionaryEntry{key: key, value: fieldValue})
	}

	return e.writeDictionary(buffer, entries, depth)
}

func (e *Encoder) encodeElement(buffer *bytes.Buffer, element reflect.Value, depth int) error {
	if element.Kind() == reflect.Interface && element.IsNil() {
		return codec_error.New(codec_error.UnsupportedType, -1, "nil has no bencode representation")
	}

	return e.encode(buffer, element.Interface(), depth)
}

func (e *Encoder) writeText(buffer *bytes.Buffer, text string) error {
	encoded, err := e.textEncoding.Encode(text)
	if err != nil {
		return codec_error.Wrap(codec_error.TextEncodingError, -1, err, "")
	}

	writeBytes(buffer, encoded)

	return nil
}

func (e *Encoder) checkDepth(depth int) error {
	if e.maxDepth > 0 && depth > e.maxDepth {
		return codec_error.New(codec_error.NestingTooDeep, -1, "nesting exceeds %d levels", e.maxDepth)
	}

	return nil
}

func writeBigInt(buffer *bytes.Buffer, n *big.Int) {
	buffer.WriteByte(integerStart)
	if n == nil {
		buffer.WriteByte('0')
	} else {
		buffer.WriteString(n.String())
	}
	buffer.WriteByte(end)
}

func writeBool(buffer *bytes.Buffer, flag bool) {
	if flag {
		buffer.WriteString("i1e")
	} else {
		buffer.WriteString("i0e")
	}
}

func writeBytes(buffer *bytes.Buffer, data []byte) {
	buffer.WriteString(strconv.Itoa(len(data)))
	buffer.WriteByte(lengthSeparator)
	buffer.Write(data)
}

func isByteSequence(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8
}

func byteSequence(sequence reflect.Value) []byte {
	if sequence.Kind() == reflect.Slice {
		return sequence.Bytes()
	}

	data := make([]byte, sequence.Len())
	reflect.Copy(reflect.ValueOf(data), sequence)

	return data
}

func unsupported(entity any, message string) *codec_error.Error {
	if message == "" {
		return codec_error.New(codec_error.UnsupportedType, -1, "%T has no bencode representation", entity)
	}

	return codec_error.New(codec_error.UnsupportedType, -1, "%s, got %T", message, entity)
}
