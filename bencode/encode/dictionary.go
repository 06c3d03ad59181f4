package encode

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"

	"github.com/mertwole/bencode-cli/bencode/codec_error"
)

// dictionaryEntry.value is either a value.Value or a reflect.Value.
type dictionaryEntry struct {
	key   []byte
	value any
}

// projectKey maps a Go map key onto the byte string it is written as.
func (e *Encoder) projectKey(key reflect.Value) ([]byte, error) {
	if key.Kind() == reflect.Interface {
		if key.IsNil() {
			return nil, codec_error.New(codec_error.InvalidDictKey, -1, "nil dictionary key")
		}
		key = key.Elem()
	}

	switch {
	case key.Kind() == reflect.String:
		encoded, err := e.textEncoding.Encode(key.String())
		if err != nil {
			return nil, codec_error.Wrap(codec_error.TextEncodingError, -1, err, "dictionary key")
		}
		return encoded, nil
	case key.Kind() == reflect.Array && key.Type().Elem().Kind() == reflect.Uint8:
		return byteSequence(key), nil
	default:
		return nil, codec_error.New(
			codec_error.InvalidDictKey,
			-1,
			"dictionary keys must be strings or byte arrays, got %s",
			key.Type(),
		)
	}
}

func (e *Encoder) writeDictionary(buffer *bytes.Buffer, entries []dictionaryEntry, depth int) error {
	if err := e.checkDepth(depth + 1); err != nil {
		return err
	}

	slices.SortFunc(entries, func(a, b dictionaryEntry) int { return bytes.Compare(a.key, b.key) })

	for i := 1; i < len(entries); i++ {
		if bytes.Equal(entries[i-1].key, entries[i].key) {
			return codec_error.New(codec_error.InvalidDictKey, -1, "duplicate dictionary key %q", entries[i].key)
		}
	}

	buffer.WriteByte(dictionaryStart)
	for _, entry := range entries {
		writeBytes(buffer, entry.key)

		var err error
		switch element := entry.value.(type) {
		case reflect.Value:
			err = e.encodeElement(buffer, element, depth+1)
		default:
			err = e.encode(buffer, element, depth+1)
		}
		if err != nil {
			return fmt.Errorf("failed to encode dictionary value for key %q: %w", entry.key, err)
		}
	}
	buffer.WriteByte(end)

	return nil
}
