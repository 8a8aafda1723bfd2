package pngn

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ColorType is the PNG color type stored in the IHDR chunk.
type ColorType uint8

const (
	Grey      ColorType = 0
	RGB       ColorType = 2
	Indexed   ColorType = 3
	GreyAlpha ColorType = 4
	RGBAlpha  ColorType = 6
)

// decoder holds the state of one decode run: the chunk framer, the bit
// reader and inflator stacked on top of it, the parsed header fields and the
// working buffers. A decoder is built per call and never reused; all buffers
// are sized once at header-parse time and never grow.
type decoder struct {
	chunks *chunkReader
	br     bitReader
	z      inflator

	width, height int
	bitDepth      uint8
	colorType     ColorType
	interlaced    bool

	samples int // samples per pixel
	bpp     int // filter delta in whole bytes
	convert convertFunc

	palette []uint16

	// double scanline buffer, sized for the widest pass
	cur, prev []byte
}

func newDecoder(r io.Reader) *decoder {
	d := &decoder{chunks: newChunkReader(r)}
	d.br.chunks = d.chunks
	d.z.br = &d.br

	return d
}

// scanlineBytes is the byte size of one filtered scanline: the packed sample
// bits rounded up to whole bytes, plus the leading filter-type byte.
func scanlineBytes(width, samples, depth int) int {
	bits := width * samples * depth

	return (bits+7)/8 + 1
}

// decode runs the full pipeline: signature, IHDR, palette, buffer setup and
// the per-pass scanline loop. With configOnly set it stops after the header.
// On error everything allocated so far goes out of scope with the decoder; no
// partially decoded surface is ever returned.
func (d *decoder) decode(configOnly bool) (*Surface, error) {
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	if configOnly {
		return nil, nil
	}

	if d.colorType == Indexed {
		if err := d.readPalette(); err != nil {
			return nil, err
		}
	}

	// Locate the first IDAT chunk; the palette, when present, precedes it.
	if err := d.chunks.seek(chunkIDAT); err != nil {
		return nil, err
	}

	surf := &Surface{
		Width:  d.width,
		Height: d.height,
		Pix:    make([]uint16, d.width*d.height),
		Alpha:  make([]uint8, d.width*d.height),
	}

	size := scanlineBytes(d.width, d.samples, int(d.bitDepth))
	d.cur = make([]byte, size)
	d.prev = make([]byte, size)

	passes := straight[:]
	if d.interlaced {
		passes = adam7[:]
	}

	for _, p := range passes {
		passWidth := p.width(d.width)
		if passWidth == 0 || p.height(d.height) == 0 {
			continue
		}

		n := scanlineBytes(passWidth, d.samples, int(d.bitDepth))
		cur, prev := d.cur[:n], d.prev[:n]
		clear(prev)

		for y := p.y0; y < d.height; y += p.dy {
			if err := d.z.read(cur); err != nil {
				return nil, err
			}

			if err := defilter(cur, prev, d.bpp); err != nil {
				return nil, err
			}

			idx := y*d.width + p.x0
			for x := 0; x < passWidth; x++ {
				surf.Pix[idx], surf.Alpha[idx] = d.convert(cur, d.palette, x)
				idx += p.dx
			}

			cur, prev = prev, cur
		}
	}

	return surf, nil
}

// readHeader validates the 8-byte signature, requires IHDR as the first
// chunk, parses its 13 fields and selects the pixel converter.
func (d *decoder) readHeader() error {
	var sig [8]byte
	if _, err := io.ReadFull(d.chunks.r, sig[:]); err != nil {
		return fmt.Errorf("signature: %w", ErrRead)
	}

	if sig != pngSignature {
		return ErrBadMagic
	}

	if err := d.chunks.readHeader(); err != nil {
		return err
	}

	if d.chunks.typ != chunkIHDR {
		return fmt.Errorf("first chunk not IHDR: %w", ErrHeaderLength)
	}

	var buf [13]byte
	if err := d.chunks.readBody(buf[:]); err != nil {
		return err
	}

	// The surface format is byte-dimensioned: both sides must fit in 1..255.
	w := binary.BigEndian.Uint32(buf[0:4])
	h := binary.BigEndian.Uint32(buf[4:8])
	if w == 0 || w > 255 || h == 0 || h > 255 {
		return fmt.Errorf("%dx%d: %w", w, h, ErrDimensions)
	}
	d.width, d.height = int(w), int(h)

	d.bitDepth = buf[8]
	d.colorType = ColorType(buf[9])

	if buf[10] != 0 {
		return fmt.Errorf("compression method %d: %w", buf[10], ErrCompressionMethod)
	}

	if buf[11] != 0 {
		return fmt.Errorf("filter method %d: %w", buf[11], ErrFilterMethod)
	}

	if buf[12] > 1 {
		return fmt.Errorf("interlace method %d: %w", buf[12], ErrInterlaceMethod)
	}
	d.interlaced = buf[12] == 1

	return d.selectConverter()
}

// selectConverter validates the (color type, bit depth) pair and installs
// the matching conversion function and sample geometry.
func (d *decoder) selectConverter() error {
	switch d.colorType {
	case Grey:
		d.samples = 1
		switch d.bitDepth {
		case 1:
			d.convert = convertGrey1
		case 2:
			d.convert = convertGrey2
		case 4:
			d.convert = convertGrey4
		case 8:
			d.convert = convertGrey8
		case 16:
			d.convert = convertGrey16
		default:
			return fmt.Errorf("grey depth %d: %w", d.bitDepth, ErrBitDepth)
		}

	case RGB:
		d.samples = 3
		switch d.bitDepth {
		case 8:
			d.convert = convertRGB8
		case 16:
			d.convert = convertRGB16
		default:
			return fmt.Errorf("rgb depth %d: %w", d.bitDepth, ErrBitDepth)
		}

	case Indexed:
		d.samples = 1
		switch d.bitDepth {
		case 1:
			d.convert = convertIndexed1
		case 2:
			d.convert = convertIndexed2
		case 4:
			d.convert = convertIndexed4
		case 8:
			d.convert = convertIndexed8
		default:
			return fmt.Errorf("indexed depth %d: %w", d.bitDepth, ErrBitDepth)
		}

	case GreyAlpha:
		d.samples = 2
		switch d.bitDepth {
		case 8:
			d.convert = convertGreyAlpha8
		case 16:
			d.convert = convertGreyAlpha16
		default:
			return fmt.Errorf("grey+alpha depth %d: %w", d.bitDepth, ErrBitDepth)
		}

	case RGBAlpha:
		d.samples = 4
		switch d.bitDepth {
		case 8:
			d.convert = convertRGBAlpha8
		case 16:
			d.convert = convertRGBAlpha16
		default:
			return fmt.Errorf("rgb+alpha depth %d: %w", d.bitDepth, ErrBitDepth)
		}

	default:
		return fmt.Errorf("color type %d: %w", d.colorType, ErrColorType)
	}

	d.bpp = (d.samples*int(d.bitDepth) + 7) / 8

	return nil
}

// readPalette seeks the PLTE chunk and loads its RGB triples as RGB565
// entries. The header read has already validated the chunk length.
func (d *decoder) readPalette() error {
	if err := d.chunks.seek(chunkPLTE); err != nil {
		return err
	}

	d.palette = make([]uint16, int(d.chunks.length)/3)

	var rgb [3]byte
	for i := range d.palette {
		if err := d.chunks.readBody(rgb[:]); err != nil {
			return err
		}

		d.palette[i] = rgb565(rgb[0], rgb[1], rgb[2])
	}

	return nil
}
