package pngn

// pass describes one interlace pass: the origin offsets and strides of its
// pixels in the final image grid.
type pass struct {
	x0, y0, dx, dy int
}

// adam7 is the fixed 7-pass pixel scatter pattern of PNG interlace method 1.
var adam7 = [7]pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// straight is the single pass of a non-interlaced image.
var straight = [1]pass{{0, 0, 1, 1}}

// width returns the pass's sub-image width for an image w pixels wide;
// zero when the image is too narrow to contribute any pixel to the pass.
func (p pass) width(w int) int {
	if w <= p.x0 {
		return 0
	}

	return (w - p.x0 + p.dx - 1) / p.dx
}

// height returns the pass's sub-image height for an image h pixels tall;
// zero when the pass is empty. Empty passes carry no scanlines at all.
func (p pass) height(h int) int {
	if h <= p.y0 {
		return 0
	}

	return (h - p.y0 + p.dy - 1) / p.dy
}
