package pngn

import "fmt"

// PNG scanline filter types.
const (
	filterNone    = 0
	filterSub     = 1
	filterUp      = 2
	filterAverage = 3
	filterPaeth   = 4
)

// defilter reverses the scanline filter named by line[0] in place. line[1:]
// holds the filtered bytes; prev is the reconstructed previous scanline of
// the same pass (all zeros for a pass's first row) and must be as long as
// line; bpp is the filter delta in whole bytes. Left neighbors before the
// first pixel count as zero, and all additions wrap mod 256 per the PNG spec.
func defilter(line, prev []byte, bpp int) error {
	switch line[0] {
	case filterNone:

	case filterSub:
		for i := 1; i < len(line); i++ {
			if i-bpp > 0 {
				line[i] += line[i-bpp]
			}
		}

	case filterUp:
		for i := 1; i < len(line); i++ {
			line[i] += prev[i]
		}

	case filterAverage:
		for i := 1; i < len(line); i++ {
			var a int
			if i-bpp > 0 {
				a = int(line[i-bpp])
			}

			line[i] += byte((a + int(prev[i])) / 2)
		}

	case filterPaeth:
		for i := 1; i < len(line); i++ {
			var a, c int
			if i-bpp > 0 {
				a = int(line[i-bpp])
				c = int(prev[i-bpp])
			}

			line[i] += byte(paeth(a, int(prev[i]), c))
		}

	default:
		return fmt.Errorf("filter type %d: %w", line[0], ErrFilterType)
	}

	return nil
}

// paeth returns whichever of left (a), up (b) and up-left (c) is closest to
// a+b-c, ties broken in the order a, b, c.
func paeth(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)

	if pa <= pb && pa <= pc {
		return a
	}

	if pb <= pc {
		return b
	}

	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
