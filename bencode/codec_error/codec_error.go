// Package codec_error holds the typed failures shared by the decoder and the encoder.
//
// Branch on the failure kind with errors.Is against the Err* sentinels, or
// with KindOf. Both see through fmt.Errorf wrapping.
package codec_error

import (
	"errors"
	"fmt"
)

type Kind int

const (
	UnexpectedEndOfData Kind = iota + 1
	InvalidFormat
	InvalidInteger
	InvalidDictKey
	TrailingData
	TextDecodingError
	NestingTooDeep
	DuplicateKey
	UnsupportedType
	TextEncodingError
)

func (k Kind) String() string {
	switch k {
	case UnexpectedEndOfData:
		return "unexpected end of data"
	case InvalidFormat:
		return "invalid format"
	case InvalidInteger:
		return "invalid integer"
	case InvalidDictKey:
		return "invalid dictionary key"
	case TrailingData:
		return "trailing data"
	case TextDecodingError:
		return "text decoding error"
	case NestingTooDeep:
		return "nesting too deep"
	case DuplicateKey:
		return "duplicate dictionary key"
	case UnsupportedType:
		return "unsupported type"
	case TextEncodingError:
		return "text encoding error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrUnexpectedEndOfData = &Error{Kind: UnexpectedEndOfData, Offset: -1}
	ErrInvalidFormat       = &Error{Kind: InvalidFormat, Offset: -1}
	ErrInvalidInteger      = &Error{Kind: InvalidInteger, Offset: -1}
	ErrInvalidDictKey      = &Error{Kind: InvalidDictKey, Offset: -1}
	ErrTrailingData        = &Error{Kind: TrailingData, Offset: -1}
	ErrTextDecoding        = &Error{Kind: TextDecodingError, Offset: -1}
	ErrNestingTooDeep      = &Error{Kind: NestingTooDeep, Offset: -1}
	ErrDuplicateKey        = &Error{Kind: DuplicateKey, Offset: -1}
	ErrUnsupportedType     = &Error{Kind: UnsupportedType, Offset: -1}
	ErrTextEncoding        = &Error{Kind: TextEncodingError, Offset: -1}
)

// Error is a codec failure. Offset is the buffer position the decoder was
// looking at, or -1 for encoder failures.
type Error struct {
	Kind    Kind
	Offset  int
	Message string
	Err     error
}

func New(kind Kind, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, offset int, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	text := e.Kind.String()
	if e.Offset >= 0 {
		text = fmt.Sprintf("%s at offset %d", text, e.Offset)
	}
	if e.Message != "" {
		text += ": " + e.Message
	}
	if e.Err != nil {
		text += ": " + e.Err.Error()
	}

	return text
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}

	return other.Kind == e.Kind
}

// KindOf returns 0 when err carries no codec failure.
func KindOf(err error) Kind {
	var codecError *Error
	if errors.As(err, &codecError) {
		return codecError.Kind
	}

	return 0
}
