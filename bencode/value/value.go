// Package value defines the in-memory tree the decoder produces and the encoder consumes.
//
// Value is a closed sum type: only the types in this package implement it.
package value

import (
	"bytes"
	"fmt"
	"math/big"
)

type Kind int

const (
	IntegerKind Kind = iota + 1
	ByteStringKind
	ListKind
	DictionaryKind
)

func (k Kind) String() string {
	switch k {
	case IntegerKind:
		return "integer"
	case ByteStringKind:
		return "byte string"
	case ListKind:
		return "list"
	case DictionaryKind:
		return "dictionary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Value interface {
	Kind() Kind

	bencodeValue()
}

// Integer is an arbitrary-precision signed integer. The zero Integer is 0.
type Integer struct {
	n *big.Int
}

func NewInteger(n int64) Integer {
	return Integer{n: big.NewInt(n)}
}

// NewBigInteger copies n, so later changes to n don't leak into the value.
func NewBigInteger(n *big.Int) Integer {
	return Integer{n: new(big.Int).Set(n)}
}

func ParseInteger(text string) (Integer, error) {
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Integer{}, fmt.Errorf("invalid decimal integer: %q", text)
	}

	return Integer{n: n}, nil
}

func (i Integer) Big() *big.Int {
	if i.n == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(i.n)
}

// Int64 reports false when the value doesn't fit.
func (i Integer) Int64() (int64, bool) {
	if i.n == nil {
		return 0, true
	}
	if !i.n.IsInt64() {
		return 0, false
	}

	return i.n.Int64(), true
}

func (i Integer) Sign() int {
	if i.n == nil {
		return 0
	}

	return i.n.Sign()
}

func (i Integer) String() string {
	if i.n == nil {
		return "0"
	}

	return i.n.String()
}

func (i Integer) Kind() Kind { return IntegerKind }

type ByteString []byte

func (b ByteString) Kind() Kind { return ByteStringKind }

// Text is a byte string already decoded under a text encoding.
type Text string

func (t Text) Kind() Kind { return ByteStringKind }

type List []Value

func (l List) Kind() Kind { return ListKind }

func (Integer) bencodeValue()    {}
func (ByteString) bencodeValue() {}
func (Text) bencodeValue()       {}
func (List) bencodeValue()       {}
func (Dictionary) bencodeValue() {}

// Equal reports structural equality. Text and ByteString are distinct.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Integer:
		b, ok := b.(Integer)
		return ok && a.Big().Cmp(b.Big()) == 0
	case ByteString:
		b, ok := b.(ByteString)
		return ok && bytes.Equal(a, b)
	case Text:
		b, ok := b.(Text)
		return ok && a == b
	case List:
		b, ok := b.(List)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case Dictionary:
		b, ok := b.(Dictionary)
		if !ok || len(a.entries) != len(b.entries) {
			return false
		}
		for i := range a.entries {
			if a.entries[i].Key != b.entries[i].Key || !Equal(a.entries[i].Value, b.entries[i].Value) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
