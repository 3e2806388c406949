package parsers

import (
	"bytes"
	"fmt"
	"hash/crc32"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

const (
	pngSigLen    = 8
	pngChunkMeta = 12 // length(4) + type(4) + crc(4)
	pngIHDRLen   = 13
	pngMaxChunks = 100000
)

// PNGParser walks the chunk stream, validating each chunk CRC that is
// fully contained in the sample, until IEND or sample exhaustion.
type PNGParser struct{}

func (*PNGParser) Family() string { return "png" }

func (*PNGParser) Parse(s *sniff.Sample) (map[string]any, error) {
	data := s.Head()
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("png: missing signature")
	}
	if len(data) < pngSigLen+pngChunkMeta {
		return nil, fmt.Errorf("png: sample shorter than one chunk")
	}

	var chunkCount, idatCount, ancillary, crcChecked, crcValid int
	var ihdrPresent, iendPresent bool
	pos := pngSigLen

	for steps := 0; pos+8 <= len(data) && steps < pngMaxChunks; steps++ {
		length, _ := u32be(data, pos)
		ctype := data[pos+4 : pos+8]
		next := pos + 8 + int(length) + 4
		if int(length) < 0 || next < pos || next > len(data) {
			// Declared length runs past the window: the chunk exists
			// but cannot be verified, and the walk cannot continue.
			break
		}

		chunkCount++
		if chunkCount == 1 && bytes.Equal(ctype, []byte("IHDR")) && length == pngIHDRLen {
			ihdrPresent = true
		}
		// Bit 5 of the first type byte marks ancillary chunks.
		if ctype[0]&0x20 != 0 {
			ancillary++
		}
		switch {
		case bytes.Equal(ctype, []byte("IDAT")):
			idatCount++
		case bytes.Equal(ctype, []byte("IEND")):
			iendPresent = true
		}

		crcChecked++
		stored, _ := u32be(data, pos+8+int(length))
		if crc32.ChecksumIEEE(data[pos+4:pos+8+int(length)]) == stored {
			crcValid++
		}

		pos = next
		if iendPresent {
			break
		}
	}

	crcFraction := 0.0
	if crcChecked > 0 {
		crcFraction = float64(crcValid) / float64(crcChecked)
	}
	ancillaryRatio := 0.0
	if chunkCount > 0 {
		ancillaryRatio = float64(ancillary) / float64(chunkCount)
	}

	parserOK := ihdrPresent && chunkCount >= 2
	return map[string]any{
		"png_ihdr_present":             ihdrPresent,
		"png_iend_present":             iendPresent,
		"png_chunk_count":              chunkCount,
		"png_idat_count":               idatCount,
		"png_chunk_crc_valid_fraction": crcFraction,
		"png_ancillary_chunk_ratio":    ancillaryRatio,
		keyParserOK:                    parserOK,
		keyStructureConsistent:         parserOK && idatCount >= 1 && iendPresent,
	}, nil
}
