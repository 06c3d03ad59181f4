// Package text_encoding resolves text encoding names and converts between
// text and bytes strictly: bytes that don't decode and runes that can't be
// encoded are errors, never replacement characters.
package text_encoding

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const DefaultName = "utf-8"

var errUnknownEncoding = errors.New("unknown text encoding")

type TextEncoding struct {
	name     string
	encoding encoding.Encoding
	utf8     bool
}

func Default() *TextEncoding {
	return &TextEncoding{name: DefaultName, encoding: unicode.UTF8, utf8: true}
}

// Lookup accepts IANA names first and WHATWG labels after that.
func Lookup(name string) (*TextEncoding, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty name", errUnknownEncoding)
	}
	if normalized == "utf-8" || normalized == "utf8" {
		return Default(), nil
	}

	found, err := ianaindex.IANA.Encoding(normalized)
	if err != nil || found == nil {
		found, err = htmlindex.Get(normalized)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errUnknownEncoding, name)
		}
	}

	return &TextEncoding{
		name:     normalized,
		encoding: found,
		utf8:     found == unicode.UTF8,
	}, nil
}

func (e *TextEncoding) Name() string {
	return e.name
}

func (e *TextEncoding) Decode(data []byte) (string, error) {
	if e.utf8 {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid %s byte sequence", e.name)
		}

		return string(data), nil
	}

	decoded, _, err := transform.Bytes(e.encoding.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", e.name, err)
	}

	// x/text decoders substitute U+FFFD for unmapped input, but the input
	// may also encode U+FFFD itself. Only the latter survives re-encoding.
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		reencoded, _, err := transform.Bytes(e.encoding.NewEncoder(), decoded)
		if err != nil || !bytes.Equal(reencoded, data) {
			return "", fmt.Errorf("byte sequence not representable in %s", e.name)
		}
	}

	return string(decoded), nil
}

func (e *TextEncoding) Encode(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("text is not valid UTF-8")
	}
	if e.utf8 {
		return []byte(text), nil
	}

	encoded, _, err := transform.Bytes(e.encoding.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode text as %s: %w", e.name, err)
	}

	return encoded, nil
}
