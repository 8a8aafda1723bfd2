// Package pngn implements a streaming PNG decoder for memory-constrained
// targets. It decodes a PNG file into a fixed RGB565+alpha [Surface] without
// ever buffering the whole file: chunks are framed on the fly, the zlib/DEFLATE
// stream is inflated through a fixed-size sliding window, and scanlines are
// defiltered and converted one row at a time. The chunk framing, Huffman table
// construction, LZ77 window and scanline filters are implemented from scratch
// per RFC 1950/1951 and ISO/IEC 15948.
//
// Supported images are at most 255x255 pixels, with all five PNG color types
// at their legal bit depths and both interlace methods. Ancillary chunks are
// skipped and chunk CRCs are not verified.
package pngn

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// I/O failures.
var (
	ErrOpen = errors.New("pngn: open failed")
	ErrRead = errors.New("pngn: read failed")
	ErrSeek = errors.New("pngn: seek failed")
)

// Stream format violations.
var (
	ErrBadMagic          = errors.New("pngn: not a PNG file")
	ErrHeaderLength      = errors.New("pngn: bad IHDR chunk")
	ErrPaletteLength     = errors.New("pngn: bad PLTE length")
	ErrDimensions        = errors.New("pngn: unsupported dimensions")
	ErrBitDepth          = errors.New("pngn: unsupported bit depth")
	ErrColorType         = errors.New("pngn: unsupported color type")
	ErrCompressionMethod = errors.New("pngn: bad compression method")
	ErrFilterMethod      = errors.New("pngn: bad filter method")
	ErrInterlaceMethod   = errors.New("pngn: bad interlace method")
	ErrFilterType        = errors.New("pngn: bad scanline filter type")
)

// zlib/DEFLATE stream violations.
var (
	ErrCompressionID    = errors.New("pngn: bad zlib compression method")
	ErrWindowSize       = errors.New("pngn: bad zlib window size")
	ErrPresetDictionary = errors.New("pngn: preset dictionary not supported")
	ErrBlockType        = errors.New("pngn: bad deflate block type")
	ErrStoredLength     = errors.New("pngn: stored block length mismatch")
)

// Huffman coding violations.
var (
	ErrCodeNotFound   = errors.New("pngn: no matching huffman code")
	ErrCodeLengthCode = errors.New("pngn: invalid code length code")
	ErrTooManyLengths = errors.New("pngn: too many code lengths")
	ErrLengthCode     = errors.New("pngn: invalid length code")
	ErrDistanceCode   = errors.New("pngn: invalid distance code")
)

// pngSignature is the fixed 8-byte PNG file signature.
var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Config holds the image parameters stored in the IHDR chunk.
type Config struct {
	Width, Height int
	BitDepth      int
	ColorType     ColorType
	Interlaced    bool
}

// Decode reads a PNG image from r and returns the decoded surface.
// On any error the partially decoded surface is discarded and nil is
// returned; the error matches one of the package's sentinel errors
// under [errors.Is].
func Decode(r io.Reader) (*Surface, error) {
	d := newDecoder(r)

	return d.decode(false)
}

// DecodeFile decodes the PNG file with the given name.
func DecodeFile(name string) (*Surface, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrOpen)
	}
	defer f.Close()

	return Decode(f)
}

// DecodeConfig returns the dimensions, bit depth, color type and interlace
// mode of a PNG image without decoding the image data.
func DecodeConfig(r io.Reader) (Config, error) {
	d := newDecoder(r)
	if _, err := d.decode(true); err != nil {
		return Config{}, err
	}

	return Config{
		Width:      d.width,
		Height:     d.height,
		BitDepth:   int(d.bitDepth),
		ColorType:  d.colorType,
		Interlaced: d.interlaced,
	}, nil
}
