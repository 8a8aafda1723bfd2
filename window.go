package pngn

// window is the DEFLATE sliding window: a fixed power-of-two ring buffer that
// holds both decoded-but-undelivered output and the LZ77 back-reference
// history. Indices wrap with a mask, so the subtraction in copyBack cannot
// misbehave near zero. The buffer is sized once from the zlib header and
// never grows.
type window struct {
	buf  []byte
	mask uint32
	wpos uint32 // next write position
	rpos uint32 // next undelivered output byte; rpos == wpos means drained
}

func newWindow(size uint32) *window {
	return &window{buf: make([]byte, size), mask: size - 1}
}

// pending reports whether decoded output is waiting to be delivered.
func (w *window) pending() bool { return w.rpos != w.wpos }

// take removes and returns the oldest undelivered output byte.
func (w *window) take() byte {
	b := w.buf[w.rpos]
	w.rpos = (w.rpos + 1) & w.mask

	return b
}

// put appends one decoded byte as undelivered output.
func (w *window) put(b byte) {
	w.buf[w.wpos] = b
	w.wpos = (w.wpos + 1) & w.mask
}

// record adds bytes that were already delivered to the caller (stored-block
// output) to the history without marking them pending. Back-references in
// later blocks may reach into stored data.
func (w *window) record(p []byte) {
	for _, b := range p {
		w.buf[w.wpos] = b
		w.wpos = (w.wpos + 1) & w.mask
	}
	w.rpos = w.wpos
}

// copyBack replays length bytes starting distance bytes behind the write
// position. Byte at a time on purpose: an overlapping reference repeats the
// bytes it is writing.
func (w *window) copyBack(distance, length uint32) {
	src := (w.wpos - distance) & w.mask

	for ; length > 0; length-- {
		w.buf[w.wpos] = w.buf[src]
		w.wpos = (w.wpos + 1) & w.mask
		src = (src + 1) & w.mask
	}
}
