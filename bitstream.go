package pngn

import "fmt"

// Bitstream handling over IDAT chunks.
//
// The DEFLATE stream inside a PNG is carried by one or more consecutive IDAT
// chunks and may be split between them at any byte. bitReader hides the chunk
// boundaries: whenever the current chunk is exhausted it seeks the next IDAT
// chunk before reading on. Bits are consumed LSB-first as RFC 1951 prescribes.

type bitReader struct {
	chunks *chunkReader
	bits   byte // leftover bits of the last partially consumed byte
	nbits  uint // number of valid bits in bits
}

// errIDATByte is allocated once; readByte is the per-bit hot path.
var errIDATByte = fmt.Errorf("idat: %w", ErrRead)

// readByte returns the next IDAT payload byte, crossing into the following
// IDAT chunk when the current one is exhausted.
func (b *bitReader) readByte() (byte, error) {
	for b.chunks.length == 0 {
		if err := b.chunks.seek(chunkIDAT); err != nil {
			return 0, err
		}
	}

	c, err := b.chunks.r.ReadByte()
	if err != nil {
		return 0, errIDATByte
	}
	b.chunks.length--

	return c, nil
}

// readBytes copies len(p) bytes of IDAT payload into p and discards any
// pending sub-byte bit remainder: byte-aligned reads intentionally break bit
// alignment, matching the stored-block rules of RFC 1951.
func (b *bitReader) readBytes(p []byte) error {
	for len(p) > 0 {
		if b.chunks.length == 0 {
			if err := b.chunks.seek(chunkIDAT); err != nil {
				return err
			}

			continue
		}

		n := len(p)
		if uint32(n) > b.chunks.length {
			n = int(b.chunks.length)
		}

		if err := b.chunks.readBody(p[:n]); err != nil {
			return err
		}
		p = p[n:]
	}

	b.align()

	return nil
}

// align drops the pending bit remainder so the next bit read starts on a
// byte boundary.
func (b *bitReader) align() {
	b.bits, b.nbits = 0, 0
}

// readBits returns an n-bit little-endian value (n clipped to 32) assembled
// from the leftover bits plus as many further IDAT bytes as needed.
func (b *bitReader) readBits(n uint) (uint32, error) {
	if n > 32 {
		n = 32
	}

	var v uint32
	var got uint

	if b.nbits > 0 {
		if b.nbits >= n {
			v = uint32(b.bits) & (uint32(1)<<n - 1)
			b.bits >>= n
			b.nbits -= n

			return v, nil
		}

		// consume all leftover bits, then read on
		v = uint32(b.bits)
		got = b.nbits
		n -= b.nbits
		b.nbits = 0
	}

	for n > 8 {
		c, err := b.readByte()
		if err != nil {
			return 0, err
		}

		v |= uint32(c) << got
		got += 8
		n -= 8
	}

	if n > 0 {
		c, err := b.readByte()
		if err != nil {
			return 0, err
		}

		v |= (uint32(c) & (uint32(1)<<n - 1)) << got
		b.bits = c >> n
		b.nbits = 8 - n
	}

	return v, nil
}
