package decode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mertwole/bencode-cli/bencode/codec_error"
	"github.com/mertwole/bencode-cli/bencode/value"
)

func newDecoder(t *testing.T, opts ...Option) *Decoder {
	decoder, err := New(opts...)
	require.NoError(t, err)

	return decoder
}

func TestDecodeInt(t *testing.T) {
	testDecodeInt("i0e", "0", 3, t)
	testDecodeInt("i-1e", "-1", 4, t)
	testDecodeInt("i42e", "42", 4, t)
	testDecodeInt("i123456789012345678901234567890e", "123456789012345678901234567890", 32, t)
	testDecodeInt("i-123456789012345678901234567890e", "-123456789012345678901234567890", 33, t)
}

func TestDecodeIntFailures(t *testing.T) {
	testDecodeIntFailure("i01e", codec_error.InvalidInteger, t)
	testDecodeIntFailure("i-0e", codec_error.InvalidInteger, t)
	testDecodeIntFailure("ie", codec_error.InvalidInteger, t)
	testDecodeIntFailure("i-e", codec_error.InvalidInteger, t)
	testDecodeIntFailure("i1x2e", codec_error.InvalidInteger, t)
	testDecodeIntFailure("i+1e", codec_error.InvalidInteger, t)
	testDecodeIntFailure("i12", codec_error.InvalidFormat, t)
	testDecodeIntFailure("x12e", codec_error.InvalidFormat, t)
	testDecodeIntFailure("", codec_error.UnexpectedEndOfData, t)
}

func TestDecodeIntAtOffset(t *testing.T) {
	require := require.New(t)

	decoded, endOffset, err := newDecoder(t).DecodeInt([]byte("xxi7eyy"), 2)
	require.NoError(err)
	require.Equal("7", decoded.String())
	require.Equal(5, endOffset)
}

func TestDecodeStr(t *testing.T) {
	require := require.New(t)
	decoder := newDecoder(t)

	decoded, endOffset, err := decoder.DecodeStr([]byte("4:spam"), 0)
	require.NoError(err)
	require.Equal(value.ByteString("spam"), decoded)
	require.Equal(6, endOffset)

	decoded, endOffset, err = decoder.DecodeStr([]byte("0:"), 0)
	require.NoError(err)
	require.Equal(value.ByteString{}, decoded)
	require.Equal(2, endOffset)

	decoded, endOffset, err = decoder.DecodeStr([]byte("3:\x00\xff\x10rest"), 0)
	require.NoError(err)
	require.Equal(value.ByteString{0x00, 0xff, 0x10}, decoded)
	require.Equal(5, endOffset)
}

func TestDecodeStrCopiesPayload(t *testing.T) {
	buffer := []byte("4:spam")

	decoded, _, err := newDecoder(t).DecodeStr(buffer, 0)
	require.NoError(t, err)

	buffer[2] = 'S'
	require.Equal(t, value.ByteString("spam"), decoded)
}

func TestDecodeStrFailures(t *testing.T) {
	testDecodeStrFailure("10:abc", codec_error.UnexpectedEndOfData, t)
	testDecodeStrFailure("4spam", codec_error.InvalidFormat, t)
	testDecodeStrFailure(":spam", codec_error.InvalidFormat, t)
	testDecodeStrFailure("04:spam", codec_error.InvalidFormat, t)
	testDecodeStrFailure("4a:spam", codec_error.InvalidFormat, t)
	testDecodeStrFailure("99999999999999999999999:a", codec_error.UnexpectedEndOfData, t)
}

func TestDecodeStrText(t *testing.T) {
	require := require.New(t)

	decoded, endOffset, err := newDecoder(t, WithEncoding("utf-8")).DecodeStr([]byte("4:spam"), 0)
	require.NoError(err)
	require.Equal(value.Text("spam"), decoded)
	require.Equal(6, endOffset)

	decoded, _, err = newDecoder(t, WithEncoding("latin1")).DecodeStr([]byte("4:caf\xe9"), 0)
	require.NoError(err)
	require.Equal(value.Text("café"), decoded)

	_, _, err = newDecoder(t, WithEncoding("utf-8")).DecodeStr([]byte("2:\xff\xfe"), 0)
	require.ErrorIs(err, codec_error.ErrTextDecoding)
}

func TestUnknownEncoding(t *testing.T) {
	_, err := New(WithEncoding("no-such-encoding"))
	require.ErrorIs(t, err, codec_error.ErrTextDecoding)
}

func TestDecodeList(t *testing.T) {
	require := require.New(t)

	decoded, endOffset, err := newDecoder(t).DecodeList([]byte("l4:spami42ee"), 0)
	require.NoError(err)
	require.Equal(12, endOffset)
	require.True(value.Equal(value.List{value.ByteString("spam"), value.NewInteger(42)}, decoded))

	decoded, endOffset, err = newDecoder(t).DecodeList([]byte("lee"), 0)
	require.NoError(err)
	require.Equal(2, endOffset)
	require.Empty(decoded)

	_, _, err = newDecoder(t).DecodeList([]byte("l4:spam"), 0)
	require.ErrorIs(err, codec_error.ErrUnexpectedEndOfData)

	_, _, err = newDecoder(t).DecodeList([]byte("li1ex"), 0)
	require.ErrorIs(err, codec_error.ErrInvalidFormat)
}

func TestDecodeDict(t *testing.T) {
	require := require.New(t)

	decoded, endOffset, err := newDecoder(t).DecodeDict([]byte("d3:bar4:spam3:fooi42ee"), 0)
	require.NoError(err)
	require.Equal(22, endOffset)

	expected := value.NewDictionary(
		value.Entry{Key: "bar", Value: value.ByteString("spam")},
		value.Entry{Key: "foo", Value: value.NewInteger(42)},
	)
	require.True(value.Equal(expected, decoded))
}

func TestDecodeDictAcceptsUnsortedKeys(t *testing.T) {
	require := require.New(t)

	decoded, _, err := newDecoder(t).DecodeDict([]byte("d3:fooi42e3:bar4:spame"), 0)
	require.NoError(err)
	require.Equal([]string{"bar", "foo"}, decoded.Keys())
}

func TestDecodeDictFailures(t *testing.T) {
	testDecodeFailure("di1ei2ee", codec_error.InvalidDictKey, t)
	testDecodeFailure("dli1ee1:ae", codec_error.InvalidDictKey, t)
	testDecodeFailure("dde1:ae", codec_error.InvalidDictKey, t)
	testDecodeFailure("dxe", codec_error.InvalidFormat, t)
	testDecodeFailure("d1:a", codec_error.UnexpectedEndOfData, t)
	testDecodeFailure("d1:ai1e", codec_error.UnexpectedEndOfData, t)
}

func TestDuplicateKeys(t *testing.T) {
	require := require.New(t)
	buffer := []byte("d1:ai1e1:ai2ee")

	decoded, err := newDecoder(t).Decode(buffer)
	require.NoError(err)
	require.True(value.Equal(value.NewDictionary(value.Entry{Key: "a", Value: value.NewInteger(2)}), decoded))

	decoded, err = newDecoder(t, WithDuplicateKeys(FirstWins)).Decode(buffer)
	require.NoError(err)
	require.True(value.Equal(value.NewDictionary(value.Entry{Key: "a", Value: value.NewInteger(1)}), decoded))

	_, err = newDecoder(t, WithDuplicateKeys(RejectDuplicates)).Decode(buffer)
	require.ErrorIs(err, codec_error.ErrDuplicateKey)

	var codecError *codec_error.Error
	require.True(errors.As(err, &codecError))
	require.Equal(7, codecError.Offset)
}

func TestDecodeTrailingData(t *testing.T) {
	require := require.New(t)
	decoder := newDecoder(t)

	_, err := decoder.Decode([]byte("i1ei2e"))
	require.ErrorIs(err, codec_error.ErrTrailingData)

	var codecError *codec_error.Error
	require.True(errors.As(err, &codecError))
	require.Equal(3, codecError.Offset)

	decoded, endOffset, err := decoder.DecodeValue([]byte("i1ei2e"), 0)
	require.NoError(err)
	require.Equal(3, endOffset)
	require.True(value.Equal(value.NewInteger(1), decoded))
}

func TestDecodeValueDispatch(t *testing.T) {
	testDecodeFailure("", codec_error.UnexpectedEndOfData, t)
	testDecodeFailure("x", codec_error.InvalidFormat, t)
	testDecodeFailure("-1", codec_error.InvalidFormat, t)

	_, _, err := newDecoder(t).DecodeValue([]byte("i1e"), 3)
	require.ErrorIs(t, err, codec_error.ErrUnexpectedEndOfData)
}

func TestDecodeNested(t *testing.T) {
	require := require.New(t)

	bencoded := removeWhitespaces(`
		d
			4:info
				d
					5:files
						l
							d 6:length i10e 4:path l 1:a 1:b e e
						e
					4:name 4:test
				e
			4:list
				l l l e e e
		e
	`)

	decoded, err := newDecoder(t).Decode([]byte(bencoded))
	require.NoError(err)

	expected := value.NewDictionary(
		value.Entry{Key: "info", Value: value.NewDictionary(
			value.Entry{Key: "files", Value: value.List{
				value.NewDictionary(
					value.Entry{Key: "length", Value: value.NewInteger(10)},
					value.Entry{Key: "path", Value: value.List{value.ByteString("a"), value.ByteString("b")}},
				),
			}},
			value.Entry{Key: "name", Value: value.ByteString("test")},
		)},
		value.Entry{Key: "list", Value: value.List{value.List{value.List{}}}},
	)
	require.True(value.Equal(expected, decoded))
}

func TestTextModeReachesNestedStrings(t *testing.T) {
	decoded, err := newDecoder(t, WithEncoding("utf-8")).Decode([]byte("d1:kl1:vee"))
	require.NoError(t, err)

	expected := value.NewDictionary(value.Entry{Key: "k", Value: value.List{value.Text("v")}})
	require.True(t, value.Equal(expected, decoded))
}

func TestTextModeKeepsRawKeys(t *testing.T) {
	require := require.New(t)

	decoded, err := newDecoder(t, WithEncoding("latin1")).Decode([]byte("d4:caf\xe94:caf\xe9e"))
	require.NoError(err)

	expected := value.NewDictionary(value.Entry{Key: "caf\xe9", Value: value.Text("café")})
	require.True(value.Equal(expected, decoded))

	_, err = newDecoder(t, WithEncoding("utf-8")).Decode([]byte("d2:\xff\xfei1ee"))
	require.ErrorIs(err, codec_error.ErrTextDecoding)
	var codecError *codec_error.Error
	require.True(errors.As(err, &codecError))
	require.Equal(1, codecError.Offset)
}

func TestNestingLimit(t *testing.T) {
	require := require.New(t)

	nested := func(depth int) []byte {
		return []byte(strings.Repeat("l", depth) + strings.Repeat("e", depth))
	}

	_, err := newDecoder(t, WithMaxDepth(3)).Decode(nested(3))
	require.NoError(err)

	_, err = newDecoder(t, WithMaxDepth(3)).Decode(nested(4))
	require.ErrorIs(err, codec_error.ErrNestingTooDeep)

	_, err = newDecoder(t).Decode(nested(DefaultMaxDepth + 1))
	require.ErrorIs(err, codec_error.ErrNestingTooDeep)

	_, err = newDecoder(t, WithMaxDepth(0)).Decode(nested(DefaultMaxDepth + 1))
	require.NoError(err)
}

func TestNestedErrorKeepsKind(t *testing.T) {
	_, err := newDecoder(t).Decode([]byte("ld1:ai01eee"))
	require.Equal(t, codec_error.InvalidInteger, codec_error.KindOf(err))
}

func testDecodeInt(bencoded string, expected string, expectedEnd int, t *testing.T) {
	decoded, endOffset, err := newDecoder(t).DecodeInt([]byte(bencoded), 0)
	require.NoError(t, err, bencoded)
	require.Equal(t, expected, decoded.String(), bencoded)
	require.Equal(t, expectedEnd, endOffset, bencoded)
}

func testDecodeIntFailure(bencoded string, kind codec_error.Kind, t *testing.T) {
	_, _, err := newDecoder(t).DecodeInt([]byte(bencoded), 0)
	require.Error(t, err, bencoded)
	require.Equal(t, kind, codec_error.KindOf(err), bencoded)
}

func testDecodeStrFailure(bencoded string, kind codec_error.Kind, t *testing.T) {
	_, _, err := newDecoder(t).DecodeStr([]byte(bencoded), 0)
	require.Error(t, err, bencoded)
	require.Equal(t, kind, codec_error.KindOf(err), bencoded)
}

func testDecodeFailure(bencoded string, kind codec_error.Kind, t *testing.T) {
	_, err := newDecoder(t).Decode([]byte(bencoded))
	require.Error(t, err, bencoded)
	require.Equal(t, kind, codec_error.KindOf(err), bencoded)
}

func removeWhitespaces(input string) string {
	return strings.Join(strings.Fields(input), "")
}
