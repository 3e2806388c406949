package parsers

import (
	"bytes"
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

// Key part names inside an OOXML package.
var (
	ooxmlContentTypes = []byte("[Content_Types].xml")
	ooxmlCoreParts    = [][]byte{
		[]byte("word/document.xml"),
		[]byte("xl/workbook.xml"),
		[]byte("ppt/presentation.xml"),
	}
	ooxmlDirPrefixes = [][]byte{[]byte("word/"), []byte("xl/"), []byte("ppt/")}
)

// OOXMLParser reuses the zip central-directory walk and probes entry
// names for the package markers that distinguish an OOXML document from
// a plain archive.
type OOXMLParser struct{}

func (*OOXMLParser) Family() string { return "ooxml" }

func (*OOXMLParser) Parse(s *sniff.Sample) (map[string]any, error) {
	rec, found := findEOCD(s)
	if !found {
		return nil, fmt.Errorf("ooxml: end of central directory not found")
	}
	entries := walkCentralDirectory(s, rec)
	if len(entries) == 0 {
		return nil, fmt.Errorf("ooxml: central directory not covered by sample")
	}

	var contentTypes, corePart, ooxmlDirs bool
	relsCount := 0
	for _, e := range entries {
		if bytes.Equal(e.name, ooxmlContentTypes) {
			contentTypes = true
		}
		if bytes.HasSuffix(e.name, []byte(".rels")) {
			relsCount++
		}
		for _, core := range ooxmlCoreParts {
			if bytes.Equal(e.name, core) {
				corePart = true
			}
		}
		for _, dir := range ooxmlDirPrefixes {
			if bytes.HasPrefix(e.name, dir) {
				ooxmlDirs = true
			}
		}
	}

	isPackage := contentTypes && (corePart || ooxmlDirs)
	parserOK := isPackage && (corePart || relsCount > 0)
	return map[string]any{
		"ooxml_is_package":        isPackage,
		"ooxml_part_count":        len(entries),
		"ooxml_core_part_present": corePart,
		"ooxml_rels_count":        relsCount,
		keyParserOK:               parserOK,
		keyStructureConsistent:    parserOK && corePart && relsCount >= 2,
	}, nil
}
