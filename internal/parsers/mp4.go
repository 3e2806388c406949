package parsers

import (
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

const (
	mp4MaxBoxes  = 100000
	mp4MaxDepth  = 8
	mp4HeaderLen = 8
	mp4LargeLen  = 16
)

// Container box types worth recursing into.
var mp4Containers = map[string]bool{
	"moov": true, "trak": true, "mdia": true, "minf": true,
	"stbl": true, "udta": true, "edts": true, "mvex": true,
}

// mp4Walk accumulates counters across the recursive box walk so the
// iteration bound is global, not per container.
type mp4Walk struct {
	sample    *sniff.Sample
	boxCount  int
	oversized bool
	ftyp      bool
	moov      bool
	mdat      bool
	brand     string
}

// walk iterates the size+type box sequence in [start, end), recursing
// into known containers. It returns false when the range is not a clean
// box sequence.
func (w *mp4Walk) walk(start, end int64, depth int) bool {
	if depth > mp4MaxDepth {
		return false
	}
	ok := true
	pos := start
	for pos+mp4HeaderLen <= end && w.boxCount < mp4MaxBoxes {
		head, covered := w.sample.ReadAt(pos, mp4LargeLen)
		if !covered || len(head) < mp4HeaderLen {
			// Box header outside the captured windows: stop without
			// judging the rest of the range.
			break
		}
		size32, _ := u32be(head, 0)
		btype := string(head[4:8])
		hdrSize := int64(mp4HeaderLen)
		var boxSize int64
		switch size32 {
		case 0:
			boxSize = end - pos // extends to the end of the container
		case 1:
			large, has := u64be(head, 8)
			if !has || large < mp4LargeLen || large > uint64(end-pos) {
				w.oversized = w.oversized || has && large > uint64(end-pos)
				return false
			}
			boxSize = int64(large)
			hdrSize = mp4LargeLen
		default:
			boxSize = int64(size32)
		}
		if boxSize < hdrSize {
			return false
		}
		if pos+boxSize > end {
			// Declared size exceeds the remaining range.
			w.oversized = true
			return false
		}

		w.boxCount++
		switch btype {
		case "ftyp":
			w.ftyp = true
			if brand, has := w.sample.ReadAt(pos+hdrSize, 4); has && len(brand) == 4 {
				w.brand = printableASCII(brand)
			}
		case "moov":
			w.moov = true
		case "mdat":
			w.mdat = true
		}
		if mp4Containers[btype] {
			if !w.walk(pos+hdrSize, pos+boxSize, depth+1) {
				ok = false
			}
		}
		pos += boxSize
	}
	return ok
}

// printableASCII keeps only printable ASCII bytes of a brand code.
func printableASCII(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c >= 0x20 && c < 0x7F {
			out = append(out, c)
		}
	}
	return string(out)
}

// MP4Parser walks the top-level box sequence, recursing into container
// boxes with bounded depth and validating declared sizes against the
// remaining sample length.
type MP4Parser struct{}

func (*MP4Parser) Family() string { return "mp4" }

func (*MP4Parser) Parse(s *sniff.Sample) (map[string]any, error) {
	if s.Size() < mp4HeaderLen {
		return nil, fmt.Errorf("mp4: sample shorter than one box header")
	}
	w := &mp4Walk{sample: s}
	treeOK := w.walk(0, s.Size(), 0)

	parserOK := w.ftyp && treeOK && (w.moov || w.mdat)
	return map[string]any{
		"mp4_ftyp_present":           w.ftyp,
		"mp4_moov_present":           w.moov,
		"mp4_mdat_present":           w.mdat,
		"mp4_brand":                  w.brand,
		"mp4_box_count":              w.boxCount,
		"mp4_oversized_box_detected": w.oversized,
		"mp4_box_tree_ok":            treeOK,
		keyParserOK:                  parserOK,
		keyStructureConsistent:       w.ftyp && treeOK && w.moov && w.mdat,
	}, nil
}
