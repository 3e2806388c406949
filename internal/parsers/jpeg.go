package parsers

import (
	"bytes"
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

// JPEG marker codes.
const (
	jpegSOI  = 0xD8
	jpegEOI  = 0xD9
	jpegSOS  = 0xDA
	jpegTEM  = 0x01
	jpegCOM  = 0xFE
	jpegRST0 = 0xD0
	jpegRST7 = 0xD7
	jpegAPP0 = 0xE0
	jpegAPP1 = 0xE1
	jpegAPPF = 0xEF

	jpegMaxSegments = 200000
)

// isSOF reports whether a marker starts a frame. C4, C8 and CC are
// DHT/JPG/DAC, not frames.
func isSOF(marker byte) bool {
	if marker < 0xC0 || marker > 0xCF {
		return false
	}
	return marker != 0xC4 && marker != 0xC8 && marker != 0xCC
}

// JPEGParser walks the marker segment sequence honoring segment length
// fields, stopping at SOS/EOI or sample exhaustion.
type JPEGParser struct{}

func (*JPEGParser) Family() string { return "jpeg" }

func (*JPEGParser) Parse(s *sniff.Sample) (map[string]any, error) {
	data := s.Head()
	if len(data) < 2 || data[0] != 0xFF || data[1] != jpegSOI {
		return nil, fmt.Errorf("jpeg: missing SOI marker")
	}

	var segmentCount, appCount, comCount int
	var sofPresent, sosPresent, exifPresent, eoiSeen bool
	pos := 2
	n := len(data)

	for steps := 0; pos < n && steps < jpegMaxSegments; steps++ {
		if data[pos] != 0xFF {
			if sosPresent {
				break
			}
			idx := bytes.IndexByte(data[pos:], 0xFF)
			if idx < 0 {
				break
			}
			pos += idx
		}
		// Skip fill bytes.
		for pos < n && data[pos] == 0xFF {
			pos++
		}
		if pos >= n {
			break
		}
		marker := data[pos]
		pos++

		switch {
		case marker >= jpegRST0 && marker <= jpegRST7, marker == jpegTEM, marker == jpegSOI:
			segmentCount++
			continue
		case marker == jpegEOI:
			segmentCount++
			eoiSeen = true
		}
		if eoiSeen {
			break
		}

		segLen, ok := u16be(data, pos)
		if !ok || segLen < 2 || pos+int(segLen) > n {
			break
		}
		segStart := pos + 2
		segmentCount++

		switch {
		case isSOF(marker):
			sofPresent = true
		case marker == jpegSOS:
			sosPresent = true
		case marker == jpegCOM:
			comCount++
		case marker >= jpegAPP0 && marker <= jpegAPPF:
			appCount++
			if marker == jpegAPP1 && segStart+6 <= n && bytes.Equal(data[segStart:segStart+6], []byte("Exif\x00\x00")) {
				exifPresent = true
			}
		}

		if marker == jpegSOS {
			// Entropy-coded data follows; the segment walk ends here.
			break
		}
		pos += int(segLen)
	}

	// EOI normally sits at the very end of the file, which is in the
	// tail window even when the scan stopped at SOS.
	if !eoiSeen {
		tail := s.Tail()
		if idx := bytes.LastIndex(tail, []byte{0xFF, jpegEOI}); idx >= 0 && len(tail)-idx <= 16 {
			eoiSeen = true
		}
	}

	parserOK := (sofPresent || sosPresent) && segmentCount >= 3
	return map[string]any{
		"jpeg_soi_eoi_paired":    eoiSeen,
		"jpeg_sof_present":       sofPresent,
		"jpeg_sos_present":       sosPresent,
		"jpeg_exif_present":      exifPresent,
		"jpeg_app_segment_count": appCount,
		"jpeg_com_segment_count": comCount,
		"jpeg_segment_count":     segmentCount,
		keyParserOK:              parserOK,
		keyStructureConsistent:   parserOK && sofPresent && sosPresent && eoiSeen,
	}, nil
}
