package pngn

// Pixel conversion: one function per (color type, bit depth) pair, mapping
// the packed sample(s) at column x of a reconstructed scanline to an RGB565
// pixel and an 8-bit alpha value. line[0] is the filter byte; samples start
// at line[1]. Sub-byte samples are packed MSB-first, 16-bit samples are big
// endian, and 16-bit channels are truncated (not rounded) to the 5/6/5/8-bit
// targets.

type convertFunc func(line []byte, pal []uint16, x int) (uint16, uint8)

// rgb565 packs 8-bit channels into 5/6/5, truncating the low bits.
func rgb565(r, g, b byte) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// rgb565From16 packs big-endian 16-bit channels into 5/6/5.
func rgb565From16(r, g, b uint16) uint16 {
	return r>>11<<11 | g>>10<<5 | b>>11
}

func be16(p []byte) uint16 {
	return uint16(p[0])<<8 | uint16(p[1])
}

func convertGrey1(line []byte, _ []uint16, x int) (uint16, uint8) {
	if line[1+x>>3]>>(7-x&7)&1 == 1 {
		return 0xffff, 0xff
	}

	return 0x0000, 0xff
}

func convertGrey2(line []byte, _ []uint16, x int) (uint16, uint8) {
	g := 85 * (line[1+x>>2] >> (6 - 2*(x&3)) & 3)

	return rgb565(g, g, g), 0xff
}

func convertGrey4(line []byte, _ []uint16, x int) (uint16, uint8) {
	g := 17 * (line[1+x>>1] >> (4 - 4*(x&1)) & 15)

	return rgb565(g, g, g), 0xff
}

func convertGrey8(line []byte, _ []uint16, x int) (uint16, uint8) {
	g := line[1+x]

	return rgb565(g, g, g), 0xff
}

func convertGrey16(line []byte, _ []uint16, x int) (uint16, uint8) {
	g := be16(line[1+2*x:])

	return rgb565From16(g, g, g), 0xff
}

func convertIndexed1(line []byte, pal []uint16, x int) (uint16, uint8) {
	return lookupPalette(pal, line[1+x>>3]>>(7-x&7)&1)
}

func convertIndexed2(line []byte, pal []uint16, x int) (uint16, uint8) {
	return lookupPalette(pal, line[1+x>>2]>>(6-2*(x&3))&3)
}

func convertIndexed4(line []byte, pal []uint16, x int) (uint16, uint8) {
	return lookupPalette(pal, line[1+x>>1]>>(4-4*(x&1))&15)
}

func convertIndexed8(line []byte, pal []uint16, x int) (uint16, uint8) {
	return lookupPalette(pal, line[1+x])
}

// lookupPalette resolves an index against the palette. An out-of-range index
// yields transparent black, matching the lenient behavior of the original
// hardware decoder.
func lookupPalette(pal []uint16, idx uint8) (uint16, uint8) {
	if int(idx) < len(pal) {
		return pal[idx], 0xff
	}

	return 0, 0
}

func convertRGB8(line []byte, _ []uint16, x int) (uint16, uint8) {
	i := 1 + 3*x

	return rgb565(line[i], line[i+1], line[i+2]), 0xff
}

func convertRGB16(line []byte, _ []uint16, x int) (uint16, uint8) {
	i := 1 + 6*x

	return rgb565From16(be16(line[i:]), be16(line[i+2:]), be16(line[i+4:])), 0xff
}

func convertGreyAlpha8(line []byte, _ []uint16, x int) (uint16, uint8) {
	i := 1 + 2*x
	g := line[i]

	return rgb565(g, g, g), line[i+1]
}

func convertGreyAlpha16(line []byte, _ []uint16, x int) (uint16, uint8) {
	i := 1 + 4*x
	g := be16(line[i:])

	return rgb565From16(g, g, g), line[i+2]
}

func convertRGBAlpha8(line []byte, _ []uint16, x int) (uint16, uint8) {
	i := 1 + 4*x

	return rgb565(line[i], line[i+1], line[i+2]), line[i+3]
}

func convertRGBAlpha16(line []byte, _ []uint16, x int) (uint16, uint8) {
	i := 1 + 8*x

	return rgb565From16(be16(line[i:]), be16(line[i+2:]), be16(line[i+4:])), line[i+6]
}
