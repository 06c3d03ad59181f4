package bencode

import (
	"fmt"
	"io"

	"github.com/mertwole/bencode-cli/bencode/decode"
	"github.com/mertwole/bencode-cli/bencode/encode"
	"github.com/mertwole/bencode-cli/bencode/unmarshal"
	"github.com/mertwole/bencode-cli/bencode/value"
)

// Decode parses a buffer holding exactly one bencoded value.
func Decode(buffer []byte, options ...decode.Option) (value.Value, error) {
	decoder, err := decode.New(options...)
	if err != nil {
		return nil, err
	}

	return decoder.Decode(buffer)
}

func Encode(entity any, options ...encode.Option) ([]byte, error) {
	encoder, err := encode.New(options...)
	if err != nil {
		return nil, err
	}

	return encoder.Encode(entity)
}

// Deserialize reads the whole reader and copies the decoded value into target.
func Deserialize(reader io.Reader, target any, options ...decode.Option) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read bencoded data: %w", err)
	}

	decoded, err := Decode(data, options...)
	if err != nil {
		return err
	}

	return unmarshal.Unmarshal(decoded, target)
}

func Serialize(writer io.Writer, entity any, options ...encode.Option) error {
	encoder, err := encode.New(options...)
	if err != nil {
		return err
	}

	return encoder.EncodeTo(writer, entity)
}
