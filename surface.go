package pngn

import "image"

// Surface is a decoded image: a row-major RGB565 pixel array plus a separate
// row-major 8-bit alpha channel, the layout consumed by the compositing layer.
// Both slices hold exactly Width*Height entries.
type Surface struct {
	Width, Height int
	Pix           []uint16
	Alpha         []uint8
}

// At returns the RGB565 pixel and alpha value at (x, y).
func (s *Surface) At(x, y int) (uint16, uint8) {
	i := y*s.Width + x

	return s.Pix[i], s.Alpha[i]
}

// Image expands the surface to a non-premultiplied 8-bit RGBA image for use
// with the standard library. The 5/6/5 channels are widened by replicating
// their high bits so that full-scale values map back to 255.
func (s *Surface) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))

	for i, p := range s.Pix {
		r := uint8(p >> 11)
		g := uint8(p >> 5 & 0x3f)
		b := uint8(p & 0x1f)

		o := i * 4
		img.Pix[o+0] = r<<3 | r>>2
		img.Pix[o+1] = g<<2 | g>>4
		img.Pix[o+2] = b<<3 | b>>2
		img.Pix[o+3] = s.Alpha[i]
	}

	return img
}
