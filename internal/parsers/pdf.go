package parsers

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

const (
	// Window around the declared xref offset searched for the table or
	// the cross-reference stream dictionary.
	pdfNearWindow = 4096
)

var (
	pdfObjToken       = regexp.MustCompile(`\d+\s+0\s+obj`)
	pdfXrefSubsection = regexp.MustCompile(`xref\s+(\d+)\s+(\d+)`)
	pdfSizeKey        = regexp.MustCompile(`/Size\s+(\d+)`)
)

// pdfVersion extracts the numeric version from a %PDF-X.Y header.
func pdfVersion(head []byte) (float64, bool) {
	if !bytes.HasPrefix(head, []byte("%PDF-")) {
		return 0, false
	}
	end := 5
	for end < len(head) && end < 5+8 && (head[end] == '.' || head[end] >= '0' && head[end] <= '9') {
		end++
	}
	v, err := strconv.ParseFloat(string(head[5:end]), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// findStartxref locates the last startxref keyword in the tail window
// and decodes the offset that follows it.
func findStartxref(tail []byte) (found bool, offset int64) {
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return false, -1
	}
	after := tail[idx+len("startxref"):]
	if len(after) > 64 {
		after = after[:64]
	}
	start := -1
	for i, c := range after {
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			after = after[:i]
			break
		}
	}
	if start < 0 {
		return true, -1
	}
	off, err := strconv.ParseInt(string(after[start:]), 10, 64)
	if err != nil {
		return true, -1
	}
	return true, off
}

// checkXref inspects the bytes around the declared xref offset for a
// classic table or a cross-reference stream, and estimates the object
// count from the subsection headers or the /Size key.
func checkXref(s *sniff.Sample, off int64) (xrefOK, trailerKw bool, sizeEst int) {
	if off < 0 {
		return false, false, 0
	}
	at := off - 16
	if at < 0 {
		at = 0
	}
	buf, ok := s.ReadAt(at, pdfNearWindow)
	if !ok || len(buf) == 0 {
		return false, false, 0
	}
	probe := buf
	if len(probe) > 128 {
		probe = probe[:128]
	}
	classic := bytes.Contains(probe, []byte("xref"))
	stream := bytes.Contains(buf, []byte("/Type")) && bytes.Contains(buf, []byte("/XRef"))
	trailerKw = bytes.Contains(buf, []byte("trailer"))

	switch {
	case classic:
		// First subsection header: starting object number, then count.
		if m := pdfXrefSubsection.FindSubmatch(buf); m != nil {
			sizeEst, _ = strconv.Atoi(string(m[2]))
		}
	case stream:
		if m := pdfSizeKey.FindSubmatch(buf); m != nil {
			sizeEst, _ = strconv.Atoi(string(m[1]))
		}
	}
	return classic || stream, trailerKw, sizeEst
}

// PDFParser validates the header version tag, the trailer and
// cross-reference machinery, and detects incremental updates.
type PDFParser struct{}

func (*PDFParser) Family() string { return "pdf" }

func (*PDFParser) Parse(s *sniff.Sample) (map[string]any, error) {
	head, tail := s.Head(), s.Tail()
	if !bytes.HasPrefix(head, []byte("%PDF-")) {
		return nil, fmt.Errorf("pdf: missing %%PDF header")
	}

	version, versionOK := pdfVersion(head)
	startxrefFound, xrefOff := findStartxref(tail)
	xrefOK, trailerKw, sizeEst := false, false, 0
	if startxrefFound {
		xrefOK, trailerKw, sizeEst = checkXref(s, xrefOff)
	}

	rootPresent := bytes.Contains(tail, []byte("/Root"))
	idPresent := bytes.Contains(tail, []byte("/ID"))
	trailerOK := startxrefFound && xrefOK && (trailerKw || rootPresent)

	// Each incremental update appends its own xref and %%EOF, so more
	// than one of either in the tail marks an updated file.
	incremental := bytes.Count(tail, []byte("startxref")) > 1 || bytes.Count(tail, []byte("%%EOF")) > 1

	objCount := sizeEst
	if objCount <= 0 {
		objCount = len(pdfObjToken.FindAll(head, -1))
		if int64(len(head)) < s.Size() {
			objCount += len(pdfObjToken.FindAll(tail, -1))
		}
	}
	objEstimate := math.Log1p(float64(max(objCount, 0)))

	parserOK := (trailerKw && startxrefFound) || xrefOK || trailerOK
	structure := parserOK && ((xrefOK && trailerOK && rootPresent) || (trailerOK && rootPresent && idPresent))
	return map[string]any{
		"pdf_version_tag_ok":              versionOK,
		"pdf_version":                     version,
		"pdf_startxref_found":             startxrefFound,
		"pdf_xref_present":                xrefOK,
		"pdf_trailer_present":             trailerKw,
		"pdf_root_present":                rootPresent,
		"pdf_id_present":                  idPresent,
		"pdf_object_count_estimate":       objEstimate,
		"pdf_incremental_update_detected": incremental,
		keyParserOK:                       parserOK,
		keyStructureConsistent:            structure,
	}, nil
}
