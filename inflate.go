package pngn

import "fmt"

// inflateState enumerates the resumable positions of the DEFLATE decoder.
// read re-enters the machine at the saved state on every call, so a scanline
// request can stop mid-block and the next request continues where it left off.
type inflateState uint8

const (
	stateBegin inflateState = iota // zlib header
	stateBlockBegin                // 3-bit block header
	stateStaticHuffman             // build the fixed code tables
	stateDynamicHuffman            // read and build the per-block code tables
	stateDecode                    // symbol decode loop
	stateStored                    // LEN/NLEN of an uncompressed block
	stateStoredRead                // raw bytes of an uncompressed block
	stateBlockEnd                  // decide: next block or stream trailer
	stateEnd                       // Adler32 trailer
	stateExit                      // stream fully consumed
)

// codeLengthOrder is the fixed permutation in which the code-length-code
// lengths are transmitted (RFC 1951 §3.2.7).
var codeLengthOrder = [19]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// inflator decodes the single zlib/DEFLATE stream spread across a PNG's IDAT
// chunks. Output goes through the sliding window, which doubles as the LZ77
// history; history and undelivered output survive block boundaries.
type inflator struct {
	br        *bitReader
	state     inflateState
	lastBlock bool
	win       *window
	litTable  []huffCode // literal/length alphabet
	distTable []huffCode // distance alphabet
	storedLen uint32     // bytes left in the current stored block
}

// read fills dst with the next len(dst) decompressed bytes, resuming the
// state machine from wherever the previous call stopped. Decoding a single
// symbol can produce more output than requested; the surplus stays in the
// window for the next call.
func (z *inflator) read(dst []byte) error {
	n := 0

	for {
		// Serve already-decoded window bytes first.
		if z.win != nil {
			for n < len(dst) && z.win.pending() {
				dst[n] = z.win.take()
				n++
			}
		}

		if n == len(dst) {
			return nil
		}

		switch z.state {
		case stateBegin:
			// zlib header, RFC 1950 §2.2: CM must be 8 (DEFLATE), CINFO
			// gives the window size, FDICT must be clear in PNG.
			var hdr [2]byte
			if err := z.br.readBytes(hdr[:]); err != nil {
				return err
			}

			if hdr[0]&0x0f != 8 {
				return fmt.Errorf("zlib CM %d: %w", hdr[0]&0x0f, ErrCompressionID)
			}

			logSize := hdr[0] >> 4
			if logSize > 7 {
				return fmt.Errorf("zlib CINFO %d: %w", logSize, ErrWindowSize)
			}

			if hdr[1]&0x20 != 0 {
				return fmt.Errorf("zlib FLG 0x%02x: %w", hdr[1], ErrPresetDictionary)
			}

			z.win = newWindow(1 << (logSize + 8))
			z.state = stateBlockBegin

		case stateBlockBegin:
			v, err := z.br.readBits(3)
			if err != nil {
				return err
			}

			if v&1 != 0 {
				z.lastBlock = true
			}

			switch v >> 1 {
			case 0:
				// stored blocks restart at a byte boundary
				z.br.align()
				z.state = stateStored
			case 1:
				z.state = stateStaticHuffman
			case 2:
				z.state = stateDynamicHuffman
			default:
				return fmt.Errorf("block type 3: %w", ErrBlockType)
			}

		case stateStaticHuffman:
			z.buildFixedTables()
			z.state = stateDecode

		case stateDynamicHuffman:
			if err := z.readDynamicTables(); err != nil {
				return err
			}
			z.state = stateDecode

		case stateDecode:
			sym, err := z.br.decodeSym(z.litTable)
			if err != nil {
				return err
			}

			switch {
			case sym < 256:
				z.win.put(byte(sym))
			case sym == 256:
				z.state = stateBlockEnd
			default:
				length, err := z.decodeLength(sym)
				if err != nil {
					return err
				}

				distance, err := z.decodeDistance()
				if err != nil {
					return err
				}

				z.win.copyBack(distance, length)
			}

		case stateStored:
			// LEN and its one's complement NLEN, little endian.
			var b [4]byte
			if err := z.br.readBytes(b[:]); err != nil {
				return err
			}

			length := uint16(b[0]) | uint16(b[1])<<8
			if length != ^(uint16(b[2]) | uint16(b[3])<<8) {
				return fmt.Errorf("stored LEN/NLEN: %w", ErrStoredLength)
			}

			z.storedLen = uint32(length)
			z.state = stateStoredRead

		case stateStoredRead:
			if z.storedLen == 0 {
				z.state = stateBlockEnd

				break
			}

			want := len(dst) - n
			if uint32(want) > z.storedLen {
				want = int(z.storedLen)
			}

			if err := z.br.readBytes(dst[n : n+want]); err != nil {
				return err
			}

			// Stored bytes are LZ77 history too.
			z.win.record(dst[n : n+want])

			z.storedLen -= uint32(want)
			n += want

			if z.storedLen == 0 {
				z.state = stateBlockEnd
			}

		case stateBlockEnd:
			if z.lastBlock {
				z.state = stateEnd
			} else {
				z.state = stateBlockBegin
			}

		case stateEnd:
			// Adler32 trailer; consumed but not verified.
			var sum [4]byte
			if err := z.br.readBytes(sum[:]); err != nil {
				return err
			}

			z.state = stateExit

		case stateExit:
			return fmt.Errorf("deflate output exhausted: %w", ErrRead)
		}
	}
}

// buildFixedTables installs the fixed literal/length and distance alphabets
// of RFC 1951 §3.2.6.
func (z *inflator) buildFixedTables() {
	lengths := make([]uint8, 288)
	for i := range lengths {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}
	z.litTable = buildHuffman(lengths)

	distances := make([]uint8, 32)
	for i := range distances {
		distances[i] = 5
	}
	z.distTable = buildHuffman(distances)
}

// readDynamicTables reads the HLIT/HDIST/HCLEN counts, decodes the combined
// literal+distance code-length array through the code-length alphabet
// (including the repeat codes 16, 17 and 18) and builds both decode tables
// (RFC 1951 §3.2.7).
func (z *inflator) readDynamicTables() error {
	hlit, err := z.br.readBits(5)
	if err != nil {
		return err
	}
	numLit := int(hlit) + 257

	hdist, err := z.br.readBits(5)
	if err != nil {
		return err
	}
	numDist := int(hdist) + 1

	hclen, err := z.br.readBits(4)
	if err != nil {
		return err
	}
	numCodeLen := int(hclen) + 4

	clLens := make([]uint8, 19)
	for i := 0; i < numCodeLen; i++ {
		v, err := z.br.readBits(3)
		if err != nil {
			return err
		}

		clLens[codeLengthOrder[i]] = uint8(v)
	}
	clTable := buildHuffman(clLens)

	total := numLit + numDist
	lengths := make([]uint8, total)

	for i := 0; i < total; {
		sym, err := z.br.decodeSym(clTable)
		if err != nil {
			return err
		}

		switch {
		case sym < 16:
			lengths[i] = uint8(sym)
			i++

		case sym == 16:
			// copy the previous length 3..6 times
			if i == 0 {
				return fmt.Errorf("repeat with no previous length: %w", ErrCodeLengthCode)
			}

			v, err := z.br.readBits(2)
			if err != nil {
				return err
			}

			repeat := int(v) + 3
			if i+repeat > total {
				return fmt.Errorf("code lengths: %w", ErrTooManyLengths)
			}

			for ; repeat > 0; repeat-- {
				lengths[i] = lengths[i-1]
				i++
			}

		case sym == 17:
			// run of 3..10 zero lengths; the array starts zeroed
			v, err := z.br.readBits(3)
			if err != nil {
				return err
			}

			i += int(v) + 3
			if i > total {
				return fmt.Errorf("code lengths: %w", ErrTooManyLengths)
			}

		default: // 18
			// run of 11..138 zero lengths
			v, err := z.br.readBits(7)
			if err != nil {
				return err
			}

			i += int(v) + 11
			if i > total {
				return fmt.Errorf("code lengths: %w", ErrTooManyLengths)
			}
		}
	}

	z.litTable = buildHuffman(lengths[:numLit])
	z.distTable = buildHuffman(lengths[numLit:])

	return nil
}

// decodeLength maps a length symbol (257..285) to the match length 3..258,
// reading extra bits where the symbol demands them (RFC 1951 §3.2.5).
func (z *inflator) decodeLength(sym uint16) (uint32, error) {
	switch {
	case sym < 265:
		// 257..264 encode lengths 3..10 directly
		return uint32(sym) - 254, nil

	case sym < 285:
		// 265..284 encode length ranges with 1..5 extra bits
		s := uint32(sym) - 261
		extra := s / 4
		length := (uint32(1) << (extra + 2)) + 3 + (s&3)<<extra

		v, err := z.br.readBits(uint(extra))
		if err != nil {
			return 0, err
		}

		return length + v, nil

	case sym == 285:
		return 258, nil

	default:
		return 0, fmt.Errorf("length symbol %d: %w", sym, ErrLengthCode)
	}
}

// decodeDistance decodes a distance symbol and its extra bits into the match
// distance 1..32768 (RFC 1951 §3.2.5).
func (z *inflator) decodeDistance() (uint32, error) {
	sym, err := z.br.decodeSym(z.distTable)
	if err != nil {
		return 0, err
	}

	switch {
	case sym < 4:
		return uint32(sym) + 1, nil

	case sym < 30:
		// 4..29 encode distance ranges with 1..13 extra bits
		s := uint32(sym) - 2
		extra := s / 2
		distance := (uint32(1) << (extra + 1)) + 1 + (s&1)<<extra

		v, err := z.br.readBits(uint(extra))
		if err != nil {
			return 0, err
		}

		return distance + v, nil

	default:
		return 0, fmt.Errorf("distance symbol %d: %w", sym, ErrDistanceCode)
	}
}
