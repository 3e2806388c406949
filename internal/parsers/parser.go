// Package parsers holds the per-format structural decoders and the
// static registry that maps a format family to its decoder.
//
// Every parser is total over hostile input: walks are iteration- and
// recursion-bounded, declared lengths are validated against the sample
// before use, and all reads go through the captured windows. A parser
// that cannot produce features returns an error describing why; the
// error never escapes past the Parse boundary as anything but a missing
// result.
package parsers

import (
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

// Parser decodes one format family's structure into raw feature values.
type Parser interface {
	// Family returns the format family this parser handles.
	Family() string
	// Parse extracts structural features from the sample. A nil map
	// with a non-nil error means the sample could not be decoded as
	// this family; the caller imputes schema defaults.
	Parse(s *sniff.Sample) (map[string]any, error)
}

// Parse runs p on s, converting any internal fault (including a panic
// from unexpected input) into an error at the boundary. This is the
// only way parsers should be invoked.
func Parse(p Parser, s *sniff.Sample) (feats map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			feats = nil
			err = fmt.Errorf("%s parser: internal fault: %v", p.Family(), r)
		}
	}()
	return p.Parse(s)
}

// Roll-up flags shared by all parsers.
const (
	keyParserOK            = "parser_ok"
	keyStructureConsistent = "structure_consistent"
)

// Binary read helpers. Each returns ok=false instead of reading outside
// the buffer.

func u16le(b []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return uint16(b[off]) | uint16(b[off+1])<<8, true
}

func u32le(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24, true
}

func u16be(b []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return uint16(b[off])<<8 | uint16(b[off+1]), true
}

func u32be(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3]), true
}

func u64be(b []byte, off int) (uint64, bool) {
	if off < 0 || off+8 > len(b) {
		return 0, false
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[off+i])
	}
	return v, true
}
