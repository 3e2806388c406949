package parsers_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/parsers"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

func jpegSegment(marker byte, payload []byte) []byte {
	out := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(out[2:], uint16(len(payload)+2))
	return append(out, payload...)
}

func jpegFile(exif bool) []byte {
	out := []byte{0xFF, 0xD8} // SOI
	out = append(out, jpegSegment(0xE0, []byte("JFIF\x00\x01\x02"))...)
	if exif {
		out = append(out, jpegSegment(0xE1, []byte("Exif\x00\x00MM"))...)
	}
	out = append(out, jpegSegment(0xFE, []byte("a comment"))...)
	out = append(out, jpegSegment(0xC0, make([]byte, 15))...) // SOF0
	out = append(out, jpegSegment(0xDA, []byte{0x01, 0x01, 0x00})...)
	out = append(out, 0x12, 0x34, 0x56, 0x78) // entropy-coded data
	out = append(out, 0xFF, 0xD9)             // EOI
	return out
}

func TestJPEGWellFormed(t *testing.T) {
	feats, err := parsers.Parse(&parsers.JPEGParser{}, sniff.FromBytes(jpegFile(false)))
	require.NoError(t, err)

	require.Equal(t, true, feats["jpeg_sof_present"])
	require.Equal(t, true, feats["jpeg_sos_present"])
	require.Equal(t, true, feats["jpeg_soi_eoi_paired"])
	require.Equal(t, false, feats["jpeg_exif_present"])
	require.Equal(t, 1, feats["jpeg_app_segment_count"])
	require.Equal(t, 1, feats["jpeg_com_segment_count"])
	require.Equal(t, true, feats["parser_ok"])
	require.Equal(t, true, feats["structure_consistent"])
}

func TestJPEGExifDetected(t *testing.T) {
	feats, err := parsers.Parse(&parsers.JPEGParser{}, sniff.FromBytes(jpegFile(true)))
	require.NoError(t, err)
	require.Equal(t, true, feats["jpeg_exif_present"])
	require.Equal(t, 2, feats["jpeg_app_segment_count"])
}

func TestJPEGTruncatedAfterSOI(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00} // length field cut off
	feats, err := parsers.Parse(&parsers.JPEGParser{}, sniff.FromBytes(data))
	require.NoError(t, err)
	require.Equal(t, false, feats["parser_ok"])
	require.Equal(t, false, feats["jpeg_sof_present"])
}

func TestJPEGMissingSOI(t *testing.T) {
	_, err := parsers.Parse(&parsers.JPEGParser{}, sniff.FromBytes([]byte{0x00, 0x01, 0x02}))
	require.Error(t, err)
}

func TestJPEGEOIFoundInTail(t *testing.T) {
	// Large scan data pushes EOI out of the head window; the tail still
	// carries it.
	head := jpegFile(false)
	head = head[:len(head)-2] // strip EOI
	big := append(head, make([]byte, 4096)...)
	big = append(big, 0xFF, 0xD9)

	s, err := sniff.Capture(bytes.NewReader(big), int64(len(big)), 256, 64)
	require.NoError(t, err)

	feats, err := parsers.Parse(&parsers.JPEGParser{}, s)
	require.NoError(t, err)
	require.Equal(t, true, feats["jpeg_soi_eoi_paired"])
}
