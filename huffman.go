package pngn

import (
	"fmt"
	"math/bits"
)

// huffCode is one entry of a canonical Huffman decode table. bits holds the
// assigned code bit-reversed, matching the LSB-first order in which the
// bitstream delivers it.
type huffCode struct {
	len  uint8
	bits uint16
	sym  uint16
}

// maxCodeLen is the longest DEFLATE code: distance codes go up to 15 bits
// (RFC 1951 §3.2.1).
const maxCodeLen = 15

// buildHuffman constructs the canonical decode table for the given per-symbol
// code lengths (0 marks an unused symbol), per RFC 1951 §3.2.2: count the
// codes of each length, derive the smallest code per length, assign
// consecutive codes to symbols in index order, then bit-reverse each code for
// LSB-first reading. The table is sorted by (length, code) ascending so the
// decoder can grow its candidate bit by bit.
func buildHuffman(lengths []uint8) []huffCode {
	var count [maxCodeLen + 1]uint16
	for _, l := range lengths {
		count[l]++
	}
	count[0] = 0

	var next [maxCodeLen + 1]uint16
	code := uint16(0)
	for l := 1; l <= maxCodeLen; l++ {
		code = (code + count[l-1]) << 1
		next[l] = code
	}

	table := make([]huffCode, 0, len(lengths))
	for l := uint8(1); l <= maxCodeLen; l++ {
		for sym, sl := range lengths {
			if sl != l {
				continue
			}

			c := next[l]
			next[l]++

			table = append(table, huffCode{
				len:  l,
				bits: reverseBits(c, l),
				sym:  uint16(sym),
			})
		}
	}

	return table
}

// reverseBits mirrors the low n bits of c.
func reverseBits(c uint16, n uint8) uint16 {
	return bits.Reverse16(c) >> (16 - n)
}

// decodeSym reads bits until they match a code in table, which is sorted by
// ascending code length. Canonical codes are prefix-free, so the first exact
// match is the only possible one. Exhausting the table without a match means
// the stream is corrupt.
func (b *bitReader) decodeSym(table []huffCode) (uint16, error) {
	var v uint16
	var have uint8

	for i := range table {
		hc := &table[i]

		if hc.len > have {
			nb, err := b.readBits(uint(hc.len - have))
			if err != nil {
				return 0, err
			}

			v |= uint16(nb) << have
			have = hc.len
		}

		if hc.bits == v {
			return hc.sym, nil
		}
	}

	return 0, fmt.Errorf("huffman: %w", ErrCodeNotFound)
}
