package sniff_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

func allFamilies() map[string]bool {
	return map[string]bool{
		"gzip": true, "png": true, "jpeg": true, "zip": true, "ooxml": true,
		"ole2": true, "pdf": true, "rar": true, "mp4": true,
	}
}

func defaultCfg() sniff.Config {
	return sniff.Config{EnabledFamilies: allFamilies(), FallbackMaxAttempts: 4}
}

func pad(prefix []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, prefix)
	return out
}

func TestSniffRoutesKnownSignatures(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		family string
		class  string
	}{
		{"pdf", pad([]byte("%PDF-1.7\n"), 128), "pdf", "document"},
		{"png", pad([]byte("\x89PNG\r\n\x1a\n"), 128), "png", "image"},
		{"jpeg", pad([]byte{0xFF, 0xD8, 0xFF, 0xE0}, 128), "jpeg", "image"},
		{"gzip", pad([]byte{0x1F, 0x8B, 0x08, 0x00}, 128), "gzip", "compressed"},
		{"ole2", pad([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, 128), "ole2", "document"},
		{"rar4", pad([]byte("Rar!\x1a\x07\x00"), 128), "rar", "archive"},
		{"rar5", pad([]byte("Rar!\x1a\x07\x01\x00"), 128), "rar", "archive"},
		{"mp4", pad([]byte{0, 0, 0, 16, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, 128), "mp4", "video"},
		{"zip", pad([]byte("PK\x03\x04"), 128), "zip", "archive"},
		{"zip eocd only", pad([]byte("PK\x05\x06"), 128), "zip", "archive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := sniff.Sniff(sniff.FromBytes(tc.data), defaultCfg())
			require.Equal(t, tc.family, res.FormatFamily)
			require.True(t, res.MagicOK)
			require.Equal(t, tc.class, res.MagicFamily)
			require.EqualValues(t, len(tc.data), res.SizeBytes)
			require.Positive(t, res.LogSize)
		})
	}
}

func TestSniffSignatureOnlyFamilies(t *testing.T) {
	// Recognized signatures without a structural parser contribute to
	// magic_ok/magic_family but never become format_family.
	cases := []struct {
		name  string
		data  []byte
		class string
	}{
		{"gif", pad([]byte("GIF89a"), 64), "image"},
		{"flac", pad([]byte("fLaC"), 64), "audio"},
		{"bzip2", pad([]byte("BZh9"), 64), "compressed"},
		{"zstd", pad([]byte{0x28, 0xB5, 0x2F, 0xFD}, 64), "compressed"},
		{"7z", pad([]byte("7z\xbc\xaf\x27\x1c"), 64), "archive"},
		{"sqlite", pad([]byte("SQLite format 3\x00"), 64), "database"},
		{"elf", pad([]byte("\x7fELF"), 64), "executable"},
		{"pe", pad([]byte("MZ\x90\x00"), 64), "executable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := sniff.Sniff(sniff.FromBytes(tc.data), defaultCfg())
			require.Equal(t, sniff.FamilyUnknown, res.FormatFamily)
			require.True(t, res.MagicOK)
			require.Equal(t, tc.class, res.MagicFamily)
		})
	}
}

func TestSniffRIFFSubtypes(t *testing.T) {
	webp := append([]byte("RIFF\x10\x00\x00\x00WEBP"), make([]byte, 32)...)
	res := sniff.Sniff(sniff.FromBytes(webp), defaultCfg())
	require.True(t, res.MagicOK)
	require.Equal(t, "image", res.MagicFamily)

	wav := append([]byte("RIFF\x10\x00\x00\x00WAVE"), make([]byte, 32)...)
	res = sniff.Sniff(sniff.FromBytes(wav), defaultCfg())
	require.True(t, res.MagicOK)
	require.Equal(t, "audio", res.MagicFamily)
}

func TestSniffTarMagicAtOffset(t *testing.T) {
	data := make([]byte, 512)
	copy(data[257:], "ustar\x00")
	res := sniff.Sniff(sniff.FromBytes(data), defaultCfg())
	require.True(t, res.MagicOK)
	require.Equal(t, "archive", res.MagicFamily)
	require.Equal(t, sniff.FamilyUnknown, res.FormatFamily)

	// Too short to hold the magic: no crash, no match.
	res = sniff.Sniff(sniff.FromBytes(make([]byte, 100)), defaultCfg())
	require.False(t, res.MagicOK)
}

func TestSniffUnknownInput(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 256)
	res := sniff.Sniff(sniff.FromBytes(data), defaultCfg())
	require.Equal(t, sniff.FamilyUnknown, res.FormatFamily)
	require.False(t, res.MagicOK)
	require.Equal(t, sniff.ClassUnknown, res.MagicFamily)
}

func TestSniffEmptyInput(t *testing.T) {
	res := sniff.Sniff(sniff.FromBytes(nil), defaultCfg())
	require.Equal(t, sniff.FamilyUnknown, res.FormatFamily)
	require.Zero(t, res.SizeBytes)
	require.Zero(t, res.LogSize)
}

func ooxmlBytes() []byte {
	data := pad([]byte("PK\x03\x04"), 512)
	copy(data[64:], "[Content_Types].xml")
	copy(data[128:], "word/document.xml")
	return data
}

func TestSniffRefinesOOXMLOverZip(t *testing.T) {
	res := sniff.Sniff(sniff.FromBytes(ooxmlBytes()), defaultCfg())
	require.Equal(t, "ooxml", res.FormatFamily)
	require.Equal(t, "document", res.MagicFamily)
	require.True(t, res.MagicOK)
}

func TestSniffPlainZipNotRefined(t *testing.T) {
	data := pad([]byte("PK\x03\x04"), 512)
	copy(data[64:], "notes.txt") // no package markers
	res := sniff.Sniff(sniff.FromBytes(data), defaultCfg())
	require.Equal(t, "zip", res.FormatFamily)
	require.Equal(t, "archive", res.MagicFamily)
}

func TestSniffRefinementDisabledByZeroAttempts(t *testing.T) {
	cfg := defaultCfg()
	cfg.FallbackMaxAttempts = 0
	res := sniff.Sniff(sniff.FromBytes(ooxmlBytes()), cfg)
	require.Equal(t, "zip", res.FormatFamily)
}

func TestSniffRefinedFamilyDisabledFallsBackToOuter(t *testing.T) {
	cfg := defaultCfg()
	cfg.EnabledFamilies["ooxml"] = false
	res := sniff.Sniff(sniff.FromBytes(ooxmlBytes()), cfg)
	require.Equal(t, "zip", res.FormatFamily)
	require.Equal(t, "archive", res.MagicFamily)
	require.True(t, res.MagicOK)
}

func TestSniffDisabledFamilyKeepsMagic(t *testing.T) {
	cfg := defaultCfg()
	cfg.EnabledFamilies["png"] = false
	res := sniff.Sniff(sniff.FromBytes(pad([]byte("\x89PNG\r\n\x1a\n"), 64)), cfg)
	require.Equal(t, sniff.FamilyUnknown, res.FormatFamily)
	require.True(t, res.MagicOK)
	require.Equal(t, "image", res.MagicFamily)
}

func TestCommonValuesKeys(t *testing.T) {
	res := sniff.Sniff(sniff.FromBytes(pad([]byte("%PDF-1.4"), 64)), defaultCfg())
	vals := res.CommonValues()
	require.Equal(t, 64, vals["size_bytes"])
	require.Equal(t, true, vals["magic_ok"])
	require.Equal(t, "pdf", vals["format_family"])
	require.Equal(t, "document", vals["magic_family"])
	require.Contains(t, vals, "log_size")
}
