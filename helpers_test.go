package pngn

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

// chunk frames a single PNG chunk with a real CRC (the decoder skips CRCs,
// but the files should be format-true).
func chunk(typ string, body []byte) []byte {
	buf := make([]byte, 0, len(body)+12)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, typ...)
	buf = append(buf, body...)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(body)

	return binary.BigEndian.AppendUint32(buf, crc.Sum32())
}

func ihdr(w, h, depth int, ct byte, interlaced bool) []byte {
	body := make([]byte, 13)
	binary.BigEndian.PutUint32(body[0:4], uint32(w))
	binary.BigEndian.PutUint32(body[4:8], uint32(h))
	body[8] = byte(depth)
	body[9] = ct
	if interlaced {
		body[12] = 1
	}

	return chunk("IHDR", body)
}

func buildPNG(chunks ...[]byte) []byte {
	out := append([]byte{}, pngSignature[:]...)
	for _, c := range chunks {
		out = append(out, c...)
	}

	return out
}

// storedZlib wraps raw bytes into a zlib stream of stored DEFLATE blocks.
func storedZlib(data []byte) []byte {
	out := []byte{0x78, 0x01}

	rest := data
	for {
		n := len(rest)
		if n > 0xffff {
			n = 0xffff
		}

		final := byte(0)
		if n == len(rest) {
			final = 1
		}

		nlen := ^uint16(n)
		out = append(out, final, byte(n), byte(n>>8), byte(nlen), byte(nlen>>8))
		out = append(out, rest[:n]...)
		rest = rest[n:]

		if final == 1 {
			break
		}
	}

	return binary.BigEndian.AppendUint32(out, adler32.Checksum(data))
}

// idatChunks splits a zlib stream into IDAT chunks with the given payload
// sizes; leftover bytes go into one final chunk.
func idatChunks(z []byte, sizes ...int) [][]byte {
	if len(sizes) == 0 {
		return [][]byte{chunk("IDAT", z)}
	}

	var out [][]byte
	for _, s := range sizes {
		if s > len(z) {
			s = len(z)
		}
		out = append(out, chunk("IDAT", z[:s]))
		z = z[s:]
	}
	if len(z) > 0 {
		out = append(out, chunk("IDAT", z))
	}

	return out
}

// synthImage describes per-pixel sample values for hand-built PNG files,
// covering layouts the standard library encoder never produces (low-depth
// greyscale, grey+alpha, Adam7).
type synthImage struct {
	w, h  int
	depth int
	ct    byte
	pal   [][3]byte            // PLTE entries for color type 3
	at    func(x, y int) []int // channel sample values at (x, y)
}

// packScanline builds one unfiltered scanline (filter byte None) holding the
// pixels at the given x positions of row y. Sub-byte samples pack MSB-first,
// 16-bit samples big-endian.
func (si synthImage) packScanline(y int, xs []int) []byte {
	line := []byte{0}

	if si.depth < 8 {
		acc, nacc := 0, 0
		for _, x := range xs {
			acc = acc<<si.depth | si.at(x, y)[0]
			nacc += si.depth
			if nacc == 8 {
				line = append(line, byte(acc))
				acc, nacc = 0, 0
			}
		}
		if nacc > 0 {
			line = append(line, byte(acc<<(8-nacc)))
		}

		return line
	}

	for _, x := range xs {
		for _, v := range si.at(x, y) {
			if si.depth == 16 {
				line = append(line, byte(v>>8), byte(v))
			} else {
				line = append(line, byte(v))
			}
		}
	}

	return line
}

// encode builds a complete PNG file carrying the samples in stored DEFLATE
// blocks, either straight or Adam7 pass order.
func (si synthImage) encode(interlaced bool, idatSizes ...int) []byte {
	var raw []byte

	passes := straight[:]
	if interlaced {
		passes = adam7[:]
	}

	for _, p := range passes {
		if p.width(si.w) == 0 || p.height(si.h) == 0 {
			continue
		}

		var xs []int
		for x := p.x0; x < si.w; x += p.dx {
			xs = append(xs, x)
		}

		for y := p.y0; y < si.h; y += p.dy {
			raw = append(raw, si.packScanline(y, xs)...)
		}
	}

	chunks := [][]byte{ihdr(si.w, si.h, si.depth, si.ct, interlaced)}

	if si.ct == 3 {
		var body []byte
		for _, e := range si.pal {
			body = append(body, e[0], e[1], e[2])
		}
		chunks = append(chunks, chunk("PLTE", body))
	}

	chunks = append(chunks, idatChunks(storedZlib(raw), idatSizes...)...)
	chunks = append(chunks, chunk("IEND", nil))

	return buildPNG(chunks...)
}

// newTestBitReader stages a bitReader over a bare IDAT chunk stream carrying
// the given payload, split into chunks of the given sizes.
func newTestBitReader(t *testing.T, payload []byte, sizes ...int) *bitReader {
	t.Helper()

	var stream []byte
	for _, c := range idatChunks(payload, sizes...) {
		stream = append(stream, c...)
	}

	cr := newChunkReader(bytes.NewReader(stream))
	require.NoError(t, cr.readHeader())
	require.Equal(t, chunkIDAT, cr.typ)

	return &bitReader{chunks: cr}
}

// newTestInflator stages an inflator over a zlib stream wrapped in IDAT
// chunks.
func newTestInflator(t *testing.T, z []byte, sizes ...int) *inflator {
	t.Helper()

	return &inflator{br: newTestBitReader(t, z, sizes...)}
}

// deflateBitWriter emits a DEFLATE bitstream by hand: header fields go out
// LSB-first, Huffman codes MSB-first.
type deflateBitWriter struct {
	buf  []byte
	bits uint32
	n    uint
}

func (w *deflateBitWriter) writeBits(v uint32, n uint) {
	w.bits |= v << w.n
	w.n += n

	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.bits))
		w.bits >>= 8
		w.n -= 8
	}
}

func (w *deflateBitWriter) writeCode(code uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.writeBits(code>>uint(i)&1, 1)
	}
}

func (w *deflateBitWriter) flush() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.bits))
		w.bits, w.n = 0, 0
	}

	return w.buf
}

// fixedLitCode returns the fixed-alphabet code for a literal/length symbol
// (RFC 1951 §3.2.6).
func fixedLitCode(sym int) (uint32, uint) {
	switch {
	case sym < 144:
		return uint32(0x30 + sym), 8
	case sym < 256:
		return uint32(0x190 + sym - 144), 9
	case sym < 280:
		return uint32(sym - 256), 7
	default:
		return uint32(0xc0 + sym - 280), 8
	}
}

// fixedZlibLiterals builds a zlib stream holding one fixed-Huffman block of
// plain literals.
func fixedZlibLiterals(data []byte) []byte {
	w := &deflateBitWriter{}
	w.writeBits(1, 1) // BFINAL
	w.writeBits(1, 2) // BTYPE fixed

	for _, b := range data {
		c, n := fixedLitCode(int(b))
		w.writeCode(c, n)
	}

	c, n := fixedLitCode(256)
	w.writeCode(c, n)

	out := append([]byte{0x78, 0x01}, w.flush()...)

	return binary.BigEndian.AppendUint32(out, adler32.Checksum(data))
}
