// Package decode parses bencoded buffers into value trees.
//
// Every entry point takes a buffer and the offset of the first byte to read,
// and returns the decoded value together with the offset of the first byte it
// did not consume.
package decode

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/mertwole/bencode-cli/bencode/codec_error"
	"github.com/mertwole/bencode-cli/bencode/text_encoding"
	"github.com/mertwole/bencode-cli/bencode/value"
)

const (
	integerStart    = 'i'
	listStart       = 'l'
	dictionaryStart = 'd'
	end             = 'e'
	lengthSeparator = ':'
	minus           = '-'
)

// Decoder holds read-only configuration and is safe for concurrent use.
type Decoder struct {
	textEncoding  *text_encoding.TextEncoding
	maxDepth      int
	duplicateKeys DuplicateKeys
}

func New(opts ...Option) (*Decoder, error) {
	o := options{maxDepth: DefaultMaxDepth, duplicateKeys: LastWins}
	for _, opt := range opts {
		opt(&o)
	}

	decoder := &Decoder{maxDepth: o.maxDepth, duplicateKeys: o.duplicateKeys}

	if o.encoding != "" {
		textEncoding, err := text_encoding.Lookup(o.encoding)
		if err != nil {
			return nil, codec_error.Wrap(codec_error.TextDecodingError, -1, err, "cannot use encoding %q", o.encoding)
		}
		decoder.textEncoding = textEncoding
	}

	return decoder, nil
}

// Decode parses exactly one value spanning the whole buffer.
func (d *Decoder) Decode(buffer []byte) (value.Value, error) {
	decoded, endOffset, err := d.DecodeValue(buffer, 0)
	if err != nil {
		return nil, err
	}

	if endOffset != len(buffer) {
		return nil, codec_error.New(
			codec_error.TrailingData,
			endOffset,
			"%d unparsed bytes after the value",
			len(buffer)-endOffset,
		)
	}

	return decoded, nil
}

func (d *Decoder) DecodeValue(buffer []byte, offset int) (value.Value, int, error) {
	return d.decodeValue(buffer, offset, 0)
}

func (d *Decoder) DecodeInt(buffer []byte, offset int) (value.Integer, int, error) {
	if err := checkMarker(buffer, offset, integerStart); err != nil {
		return value.Integer{}, offset, err
	}

	terminator := bytes.IndexByte(buffer[offset+1:], end)
	if terminator == -1 {
		return value.Integer{}, offset, codec_error.New(
			codec_error.InvalidFormat,
			offset,
			"integer terminator %q not found",
			end,
		)
	}
	terminator += offset + 1

	digits := buffer[offset+1 : terminator]
	if err := validateInteger(digits); err != nil {
		return value.Integer{}, offset, codec_error.New(codec_error.InvalidInteger, offset+1, "%s", err)
	}

	parsed, err := value.ParseInteger(string(digits))
	if err != nil {
		return value.Integer{}, offset, codec_error.Wrap(codec_error.InvalidInteger, offset+1, err, "")
	}

	return parsed, terminator + 1, nil
}

// DecodeStr returns value.ByteString, or value.Text in text mode.
func (d *Decoder) DecodeStr(buffer []byte, offset int) (value.Value, int, error) {
	raw, endOffset, err := readBytes(buffer, offset)
	if err != nil {
		return nil, offset, err
	}

	if d.textEncoding == nil {
		return value.ByteString(raw), endOffset, nil
	}

	text, err := d.textEncoding.Decode(raw)
	if err != nil {
		return nil, offset, codec_error.Wrap(codec_error.TextDecodingError, offset, err, "")
	}

	return value.Text(text), endOffset, nil
}

func (d *Decoder) DecodeList(buffer []byte, offset int) (value.List, int, error) {
	return d.decodeList(buffer, offset, 0)
}

func (d *Decoder) DecodeDict(buffer []byte, offset int) (value.Dictionary, int, error) {
	return d.decodeDict(buffer, offset, 0)
}

func (d *Decoder) decodeValue(buffer []byte, offset int, depth int) (value.Value, int, error) {
	if offset < 0 {
		return nil, offset, codec_error.New(codec_error.InvalidFormat, offset, "negative offset")
	}
	if offset >= len(buffer) {
		return nil, offset, codec_error.New(codec_error.UnexpectedEndOfData, offset, "expected a value")
	}

	marker := buffer[offset]
	switch {
	case marker == integerStart:
		return d.DecodeInt(buffer, offset)
	case isDigit(marker):
		return d.DecodeStr(buffer, offset)
	case marker == listStart:
		return d.decodeList(buffer, offset, depth)
	case marker == dictionaryStart:
		return d.decodeDict(buffer, offset, depth)
	default:
		return nil, offset, codec_error.New(
			codec_error.InvalidFormat,
			offset,
			"unexpected character %q, expected one of `i`, `l`, `d`, `0-9`",
			marker,
		)
	}
}

func (d *Decoder) decodeList(buffer []byte, offset int, depth int) (value.List, int, error) {
	if err := checkMarker(buffer, offset, listStart); err != nil {
		return nil, offset, err
	}
	if err := d.checkDepth(offset, depth+1); err != nil {
		return nil, offset, err
	}

	list := make(value.List, 0)
	position := offset + 1
	for {
		if position >= len(buffer) {
			return nil, offset, codec_error.New(
				codec_error.UnexpectedEndOfData,
				position,
				"list started at offset %d is not terminated",
				offset,
			)
		}

		if buffer[position] == end {
			return list, position + 1, nil
		}

		element, next, err := d.decodeValue(buffer, position, depth+1)
		if err != nil {
			return nil, offset, fmt.Errorf("failed to decode list element %d: %w", len(list), err)
		}

		list = append(list, element)
		position = next
	}
}

func (d *Decoder) decodeDict(buffer []byte, offset int, depth int) (value.Dictionary, int, error) {
	if err := checkMarker(buffer, offset, dictionaryStart); err != nil {
		return value.Dictionary{}, offset, err
	}
	if err := d.checkDepth(offset, depth+1); err != nil {
		return value.Dictionary{}, offset, err
	}

	entries := make([]value.Entry, 0)
	seen := make(map[string]int)
	position := offset + 1
	for {
		if position >= len(buffer) {
			return value.Dictionary{}, offset, codec_error.New(
				codec_error.UnexpectedEndOfData,
				position,
				"dictionary started at offset %d is not terminated",
				offset,
			)
		}

		marker := buffer[position]
		if marker == end {
			return value.NewDictionary(entries...), position + 1, nil
		}

		if marker == integerStart || marker == listStart || marker == dictionaryStart {
			return value.Dictionary{}, offset, codec_error.New(
				codec_error.InvalidDictKey,
				position,
				"dictionary key must be a byte string, found %q",
				marker,
			)
		}
		if !isDigit(marker) {
			return value.Dictionary{}, offset, codec_error.New(
				codec_error.InvalidFormat,
				position,
				"unexpected character %q where a dictionary key was expected",
				marker,
			)
		}

		// Keys stay raw bytes in text mode so that re-encoding reproduces them.
		keyOffset := position
		key, next, err := readBytes(buffer, position)
		if err != nil {
			return value.Dictionary{}, offset, fmt.Errorf("failed to decode dictionary key: %w", err)
		}
		if d.textEncoding != nil {
			if _, err := d.textEncoding.Decode(key); err != nil {
				return value.Dictionary{}, offset, codec_error.Wrap(codec_error.TextDecodingError, keyOffset, err, "dictionary key")
			}
		}
		position = next

		keyString := string(key)

		element, next, err := d.decodeValue(buffer, position, depth+1)
		if err != nil {
			return value.Dictionary{}, offset, fmt.Errorf("failed to decode dictionary value for key %q: %w", keyString, err)
		}
		position = next

		existing, duplicate := seen[keyString]
		if !duplicate {
			seen[keyString] = len(entries)
			entries = append(entries, value.Entry{Key: keyString, Value: element})
			continue
		}

		switch d.duplicateKeys {
		case FirstWins:
		case RejectDuplicates:
			return value.Dictionary{}, offset, codec_error.New(
				codec_error.DuplicateKey,
				keyOffset,
				"key %q appears more than once",
				keyString,
			)
		default:
			entries[existing].Value = element
		}
	}
}

func (d *Decoder) checkDepth(offset int, depth int) error {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return codec_error.New(codec_error.NestingTooDeep, offset, "nesting exceeds %d levels", d.maxDepth)
	}

	return nil
}

func checkMarker(buffer []byte, offset int, marker byte) error {
	if offset < 0 {
		return codec_error.New(codec_error.InvalidFormat, offset, "negative offset")
	}
	if offset >= len(buffer) {
		return codec_error.New(codec_error.UnexpectedEndOfData, offset, "expected %q", marker)
	}
	if buffer[offset] != marker {
		return codec_error.New(codec_error.InvalidFormat, offset, "expected %q, found %q", marker, buffer[offset])
	}

	return nil
}

// validateInteger checks the text between `i` and `e`.
func validateInteger(digits []byte) error {
	if len(digits) == 0 {
		return fmt.Errorf("no digits between `i` and `e`")
	}

	negative := digits[0] == minus
	if negative {
		digits = digits[1:]
		if len(digits) == 0 {
			return fmt.Errorf("sign without digits")
		}
	}

	for _, digit := range digits {
		if !isDigit(digit) {
			return fmt.Errorf("non-digit character %q", digit)
		}
	}

	if negative && len(digits) == 1 && digits[0] == '0' {
		return fmt.Errorf("negative zero is not allowed")
	}
	if digits[0] == '0' && len(digits) > 1 {
		return fmt.Errorf("leading zeros are not allowed")
	}

	return nil
}

// readBytes reads `<length>:<bytes>` and returns a copy of the payload.
func readBytes(buffer []byte, offset int) ([]byte, int, error) {
	if offset < 0 {
		return nil, offset, codec_error.New(codec_error.InvalidFormat, offset, "negative offset")
	}
	if offset >= len(buffer) {
		return nil, offset, codec_error.New(codec_error.UnexpectedEndOfData, offset, "expected a string length")
	}

	separator := bytes.IndexByte(buffer[offset:], lengthSeparator)
	if separator == -1 {
		return nil, offset, codec_error.New(codec_error.InvalidFormat, offset, "string length separator %q not found", lengthSeparator)
	}
	separator += offset

	lengthDigits := buffer[offset:separator]
	if len(lengthDigits) == 0 {
		return nil, offset, codec_error.New(codec_error.InvalidFormat, offset, "empty string length")
	}
	for _, digit := range lengthDigits {
		if !isDigit(digit) {
			return nil, offset, codec_error.New(codec_error.InvalidFormat, offset, "non-digit character %q in string length", digit)
		}
	}
	if lengthDigits[0] == '0' && len(lengthDigits) > 1 {
		return nil, offset, codec_error.New(codec_error.InvalidFormat, offset, "leading zeros in string length")
	}

	available := len(buffer) - separator - 1
	length, err := strconv.ParseUint(string(lengthDigits), 10, 63)
	if err != nil || length > uint64(available) {
		return nil, offset, codec_error.New(
			codec_error.UnexpectedEndOfData,
			separator+1,
			"string needs %s bytes, %d available",
			lengthDigits,
			available,
		)
	}

	start := separator + 1
	payload := make([]byte, length)
	copy(payload, buffer[start:start+int(length)])

	return payload, start + int(length), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
