package pngn

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// chunkType classifies the chunks the decoder cares about; everything else
// (ancillary chunks, CRC-only trailers) is skipped as chunkUnknown.
type chunkType uint8

const (
	chunkUnknown chunkType = iota
	chunkIHDR
	chunkPLTE
	chunkIDAT
	chunkIEND
)

// chunkReader frames PNG chunks over a forward-only byte stream. It tracks
// only the current chunk: its type and the number of body bytes not yet
// consumed. Chunk CRCs are skipped, never verified.
type chunkReader struct {
	r      *bufio.Reader
	length uint32 // unread bytes in the current chunk body
	typ    chunkType
}

func newChunkReader(r io.Reader) *chunkReader {
	return &chunkReader{r: bufio.NewReader(r)}
}

// readHeader reads the next 4-byte big-endian length and 4-byte type tag,
// classifies the type and validates the lengths that are fixed by the format:
// IHDR must be 13 bytes, PLTE must hold 1..256 whole RGB triples.
func (c *chunkReader) readHeader() error {
	var buf [8]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return fmt.Errorf("chunk header: %w", ErrRead)
	}

	c.length = binary.BigEndian.Uint32(buf[:4])

	switch string(buf[4:8]) {
	case "IHDR":
		c.typ = chunkIHDR
		if c.length != 13 {
			return fmt.Errorf("IHDR length %d: %w", c.length, ErrHeaderLength)
		}
	case "PLTE":
		c.typ = chunkPLTE
		if c.length < 3 || c.length > 768 || c.length%3 != 0 {
			return fmt.Errorf("PLTE length %d: %w", c.length, ErrPaletteLength)
		}
	case "IDAT":
		c.typ = chunkIDAT
	case "IEND":
		c.typ = chunkIEND
	default:
		c.typ = chunkUnknown
	}

	return nil
}

// seek skips the remainder of the current chunk body plus its 4 CRC bytes,
// then keeps reading headers (skipping unwanted chunks the same way) until a
// chunk of the wanted type is current. The loop is bounded by the file length:
// a miss runs into EOF and fails the skip or the header read.
func (c *chunkReader) seek(want chunkType) error {
	for {
		if err := c.skip(int(c.length) + 4); err != nil {
			return err
		}

		if err := c.readHeader(); err != nil {
			return err
		}

		if c.typ == want {
			return nil
		}
	}
}

// skip discards n bytes from the stream.
func (c *chunkReader) skip(n int) error {
	if _, err := c.r.Discard(n); err != nil {
		return fmt.Errorf("chunk skip: %w", ErrSeek)
	}

	return nil
}

// readBody copies len(p) bytes out of the current chunk body. The caller is
// responsible for not reading past the chunk end.
func (c *chunkReader) readBody(p []byte) error {
	if _, err := io.ReadFull(c.r, p); err != nil {
		return fmt.Errorf("chunk body: %w", ErrRead)
	}

	c.length -= uint32(len(p))

	return nil
}
