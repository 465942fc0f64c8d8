package ccnb

// SkeletonDecoder tracks element structure on a byte stream without
// interpreting it. Feed it bytes with Decode; whenever State drops
// to zero a complete top-level element ends at Index. The decoder
// stops consuming at each such boundary so the caller can hand the
// frame off before resuming.
//
// State is zero at a frame boundary, positive inside an element or
// token, and negative after a structural error. Index counts bytes
// consumed since the last reset, and may be rebased downward by the
// caller when it compacts its buffer.
type SkeletonDecoder struct {
	State int
	Index int

	nest       int
	val        uint64
	midToken   bool
	blobRemain int
}

// Reset returns the decoder to its initial state.
func (d *SkeletonDecoder) Reset() {
	*d = SkeletonDecoder{}
}

// Decode consumes bytes from p, stopping after the close of a
// top-level element or at the end of p, whichever comes first.
// It returns the number of bytes consumed and advances Index by the
// same amount.
func (d *SkeletonDecoder) Decode(p []byte) int {
	i := 0
	for i < len(p) && d.State >= 0 {
		if d.blobRemain > 0 {
			n := d.blobRemain
			if n > len(p)-i {
				n = len(p) - i
			}
			d.blobRemain -= n
			i += n
			if d.blobRemain == 0 && d.nest == 0 {
				// a bare leaf cannot be a top-level element
				d.State = -1
				break
			}
			continue
		}
		b := p[i]
		if !d.midToken && b == Close {
			i++
			if d.nest <= 0 {
				d.State = -1
				break
			}
			d.nest--
			if d.nest == 0 {
				d.State = 0
				d.Index += i
				return i
			}
			continue
		}
		i++
		if b&ttHBit == 0 {
			if d.val > 1<<56 {
				d.State = -1
				break
			}
			d.val = d.val<<7 | uint64(b&^byte(ttHBit))
			d.midToken = true
			continue
		}
		val := d.val<<(7-ttBits) | uint64(b>>ttBits&maxTiny)
		tt := TT(b & ttMask)
		d.val = 0
		d.midToken = false
		switch tt {
		case TTDTag:
			d.nest++
		case TTBlob, TTUData:
			if d.nest == 0 {
				d.State = -1
			}
			d.blobRemain = int(val)
		default:
			d.State = -1
		}
	}
	d.Index += i
	if d.State >= 0 {
		d.State = d.nest + 1
	}
	return i
}
