package parsers_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/parsers"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

func zipArchive(t *testing.T, comment string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if comment != "" {
		require.NoError(t, zw.SetComment(comment))
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipWellFormed(t *testing.T) {
	data := zipArchive(t, "release build", map[string]string{
		"readme.txt":   "hello",
		"bin/tool":     "binary contents",
		"doc/notes.md": "some notes",
	})
	feats, err := parsers.Parse(&parsers.ZipParser{}, sniff.FromBytes(data))
	require.NoError(t, err)

	require.Equal(t, true, feats["zip_eocd_found"])
	require.Equal(t, 3, feats["zip_entry_count_declared"])
	require.Equal(t, 3, feats["zip_entry_count_found"])
	require.Equal(t, true, feats["zip_cd_offset_ok"])
	require.Equal(t, 1.0, feats["zip_crc_present_fraction"])
	require.Equal(t, len("release build"), feats["zip_comment_len"])
	require.Equal(t, true, feats["parser_ok"])
	require.Equal(t, true, feats["structure_consistent"])
}

func TestZipTruncatedBeforeEOCD(t *testing.T) {
	data := zipArchive(t, "", map[string]string{"a.txt": "aaa"})
	cut := data[:len(data)-25] // drop the EOCD record
	_, err := parsers.Parse(&parsers.ZipParser{}, sniff.FromBytes(cut))
	require.Error(t, err)
	require.Contains(t, err.Error(), "end of central directory")
}

func TestZipEOCDBehindComment(t *testing.T) {
	data := zipArchive(t, "PK\x05\x06 inside a comment", map[string]string{"a.txt": "aaa"})
	feats, err := parsers.Parse(&parsers.ZipParser{}, sniff.FromBytes(data))
	require.NoError(t, err)
	require.Equal(t, true, feats["zip_eocd_found"])
	require.Equal(t, 1, feats["zip_entry_count_found"])
}

func TestZipBogusCDOffset(t *testing.T) {
	data := zipArchive(t, "", map[string]string{"a.txt": "aaa"})
	// EOCD cd_offset field sits 16 bytes into the record.
	idx := bytes.LastIndex(data, []byte("PK\x05\x06"))
	require.GreaterOrEqual(t, idx, 0)
	data[idx+16] ^= 0x55

	feats, err := parsers.Parse(&parsers.ZipParser{}, sniff.FromBytes(data))
	require.NoError(t, err)
	require.Equal(t, false, feats["parser_ok"])
}

func TestOOXMLPackage(t *testing.T) {
	data := zipArchive(t, "", map[string]string{
		"[Content_Types].xml":          "<Types/>",
		"_rels/.rels":                  "<Relationships/>",
		"word/_rels/document.xml.rels": "<Relationships/>",
		"word/document.xml":            "<w:document/>",
		"docProps/core.xml":            "<cp:coreProperties/>",
	})
	feats, err := parsers.Parse(&parsers.OOXMLParser{}, sniff.FromBytes(data))
	require.NoError(t, err)

	require.Equal(t, true, feats["ooxml_is_package"])
	require.Equal(t, 5, feats["ooxml_part_count"])
	require.Equal(t, true, feats["ooxml_core_part_present"])
	require.Equal(t, 2, feats["ooxml_rels_count"])
	require.Equal(t, true, feats["parser_ok"])
	require.Equal(t, true, feats["structure_consistent"])
}

func TestOOXMLPlainArchiveIsNotAPackage(t *testing.T) {
	data := zipArchive(t, "", map[string]string{"a.txt": "aaa", "b.txt": "bbb"})
	feats, err := parsers.Parse(&parsers.OOXMLParser{}, sniff.FromBytes(data))
	require.NoError(t, err)
	require.Equal(t, false, feats["ooxml_is_package"])
	require.Equal(t, false, feats["parser_ok"])
}
