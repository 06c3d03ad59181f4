package bitfield

import "strings"

// Bitfield marks pieces by index, most significant bit first.
type Bitfield struct {
	data   []byte
	length int
}

func NewEmpty(pieceCount int) Bitfield {
	return Bitfield{data: make([]byte, (pieceCount+7)/8), length: pieceCount}
}

func (bitfield *Bitfield) Length() int {
	return bitfield.length
}

func (bitfield *Bitfield) ToBytes() []byte {
	return bitfield.data
}

func (bitfield *Bitfield) AddPiece(piece int) {
	byteIdx := piece / 8
	bitIdx := piece % 8

	bitfield.data[byteIdx] |= 1 << (7 - bitIdx)
}

func (bitfield *Bitfield) ContainsPiece(piece int) bool {
	byteIdx := piece / 8
	bitIdx := piece % 8

	return bitfield.data[byteIdx]&(1<<(7-bitIdx)) != 0
}

func (bitfield *Bitfield) Count() int {
	count := 0
	for piece := range bitfield.length {
		if bitfield.ContainsPiece(piece) {
			count++
		}
	}

	return count
}

// Missing lists the indices of pieces that are not set.
func (bitfield *Bitfield) Missing() []int {
	missing := make([]int, 0)
	for piece := range bitfield.length {
		if !bitfield.ContainsPiece(piece) {
			missing = append(missing, piece)
		}
	}

	return missing
}

// String renders one character per piece: '#' when set, '.' otherwise.
func (bitfield *Bitfield) String() string {
	var builder strings.Builder
	builder.Grow(bitfield.length)

	for piece := range bitfield.length {
		if bitfield.ContainsPiece(piece) {
			builder.WriteByte('#')
		} else {
			builder.WriteByte('.')
		}
	}

	return builder.String()
}
