package parsers_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/parsers"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

func pdfDocument() []byte {
	body := "%PDF-1.7\n" +
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
		"2 0 obj\n<< /Type /Pages /Count 0 >>\nendobj\n"
	xrefOff := len(body)
	body += "xref\n0 3\n" +
		"0000000000 65535 f \n" +
		"0000000009 00000 n \n" +
		"0000000058 00000 n \n" +
		"trailer\n<< /Size 3 /Root 1 0 R /ID [<4f7a> <4f7a>] >>\n" +
		fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefOff)
	return []byte(body)
}

func TestPDFWellFormed(t *testing.T) {
	feats, err := parsers.Parse(&parsers.PDFParser{}, sniff.FromBytes(pdfDocument()))
	require.NoError(t, err)

	require.Equal(t, true, feats["pdf_version_tag_ok"])
	require.Equal(t, 1.7, feats["pdf_version"])
	require.Equal(t, true, feats["pdf_startxref_found"])
	require.Equal(t, true, feats["pdf_xref_present"])
	require.Equal(t, true, feats["pdf_trailer_present"])
	require.Equal(t, true, feats["pdf_root_present"])
	require.Equal(t, true, feats["pdf_id_present"])
	require.Equal(t, false, feats["pdf_incremental_update_detected"])
	require.Positive(t, feats["pdf_object_count_estimate"])
	require.Equal(t, true, feats["parser_ok"])
	require.Equal(t, true, feats["structure_consistent"])
}

func TestPDFIncrementalUpdate(t *testing.T) {
	data := pdfDocument()
	update := "3 0 obj\n<< /Type /Metadata >>\nendobj\n"
	xrefOff := len(data) + len(update)
	update += "xref\n3 1\n0000000000 00000 n \n" +
		"trailer\n<< /Size 4 /Root 1 0 R /Prev 9 >>\n" +
		fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefOff)
	data = append(data, update...)

	feats, err := parsers.Parse(&parsers.PDFParser{}, sniff.FromBytes(data))
	require.NoError(t, err)
	require.Equal(t, true, feats["pdf_incremental_update_detected"])
	require.Equal(t, true, feats["parser_ok"])
}

func TestPDFNoXrefMachinery(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\n" + "garbage trailer-less content\n")
	feats, err := parsers.Parse(&parsers.PDFParser{}, sniff.FromBytes(data))
	require.NoError(t, err)
	require.Equal(t, true, feats["pdf_version_tag_ok"])
	require.Equal(t, false, feats["pdf_startxref_found"])
	require.Equal(t, false, feats["parser_ok"])
}

func TestPDFMalformedVersionTag(t *testing.T) {
	data := append([]byte("%PDF-x.y\nstartxref\n9\ntrailer\n%%EOF\n"), make([]byte, 32)...)
	feats, err := parsers.Parse(&parsers.PDFParser{}, sniff.FromBytes(data))
	require.NoError(t, err)
	require.Equal(t, false, feats["pdf_version_tag_ok"])
	require.Equal(t, 0.0, feats["pdf_version"])
}

func TestPDFMissingHeader(t *testing.T) {
	_, err := parsers.Parse(&parsers.PDFParser{}, sniff.FromBytes([]byte("not a pdf")))
	require.Error(t, err)
}
