package bitfield

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitfield(t *testing.T) {
	require := require.New(t)

	bitfield := NewEmpty(10)
	require.Equal(10, bitfield.Length())
	require.Len(bitfield.ToBytes(), 2)

	bitfield.AddPiece(0)
	bitfield.AddPiece(9)

	require.True(bitfield.ContainsPiece(0))
	require.False(bitfield.ContainsPiece(1))
	require.True(bitfield.ContainsPiece(9))
	require.Equal([]byte{0x80, 0x40}, bitfield.ToBytes())

	require.Equal(2, bitfield.Count())
	require.Equal([]int{1, 2, 3, 4, 5, 6, 7, 8}, bitfield.Missing())
	require.Equal("#........#", bitfield.String())
}

func TestEmptyBitfield(t *testing.T) {
	bitfield := NewEmpty(0)

	require.Equal(t, 0, bitfield.Count())
	require.Empty(t, bitfield.Missing())
	require.Empty(t, bitfield.String())
}
