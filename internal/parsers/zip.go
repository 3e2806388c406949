package parsers

import (
	"bytes"
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

var zipEOCDSig = []byte("PK\x05\x06")

const (
	zipEOCDLen    = 22
	zipCDHLen     = 46
	zipCDHSig     = 0x02014B50
	zipMaxEntries = 100000
	// General purpose bit 11: names are UTF-8.
	zipFlagUTF8 = 0x0800
)

// zipEOCD is the parsed end-of-central-directory record.
type zipEOCD struct {
	entriesTotal int
	cdSize       int64
	cdOffset     int64
	commentLen   int
}

// findEOCD locates the EOCD record in the tail window, searching
// backwards so a trailing comment does not hide it.
func findEOCD(s *sniff.Sample) (*zipEOCD, bool) {
	tail := s.Tail()
	idx := bytes.LastIndex(tail, zipEOCDSig)
	for idx >= 0 {
		pos := s.TailOffset() + int64(idx)
		if rec, ok := parseEOCD(s, pos); ok {
			return rec, true
		}
		idx = bytes.LastIndex(tail[:idx], zipEOCDSig)
	}
	return nil, false
}

func parseEOCD(s *sniff.Sample, pos int64) (*zipEOCD, bool) {
	b, ok := s.ReadAt(pos, zipEOCDLen)
	if !ok || len(b) < zipEOCDLen {
		return nil, false
	}
	entriesTotal, _ := u16le(b, 10)
	cdSize, _ := u32le(b, 12)
	cdOffset, _ := u32le(b, 16)
	commentLen, _ := u16le(b, 20)
	// The comment must run exactly to end of file, which rules out EOCD
	// signatures that happen to appear inside a comment or entry data.
	if pos+zipEOCDLen+int64(commentLen) != s.Size() {
		return nil, false
	}
	return &zipEOCD{
		entriesTotal: int(entriesTotal),
		cdSize:       int64(cdSize),
		cdOffset:     int64(cdOffset),
		commentLen:   int(commentLen),
	}, true
}

// zipEntry is one central directory header, reduced to the fields the
// featurizers need.
type zipEntry struct {
	name       []byte
	method     uint16
	flags      uint16
	crc        uint32
	commentLen int
}

// walkCentralDirectory decodes central directory headers from the
// declared region, stopping at a bad signature, the entry budget, or
// the end of the covered sample.
func walkCentralDirectory(s *sniff.Sample, rec *zipEOCD) []zipEntry {
	data, ok := s.ReadAt(rec.cdOffset, int(rec.cdSize))
	if !ok {
		return nil
	}
	var entries []zipEntry
	pos := 0
	for pos+zipCDHLen <= len(data) && len(entries) < zipMaxEntries {
		sig, _ := u32le(data, pos)
		if sig != zipCDHSig {
			break
		}
		flags, _ := u16le(data, pos+8)
		method, _ := u16le(data, pos+10)
		crc, _ := u32le(data, pos+16)
		nameLen, _ := u16le(data, pos+28)
		extraLen, _ := u16le(data, pos+30)
		commentLen, _ := u16le(data, pos+32)

		nameEnd := pos + zipCDHLen + int(nameLen)
		if nameEnd > len(data) {
			break
		}
		entries = append(entries, zipEntry{
			name:       data[pos+zipCDHLen : nameEnd],
			method:     method,
			flags:      flags,
			crc:        crc,
			commentLen: int(commentLen),
		})
		pos += zipCDHLen + int(nameLen) + int(extraLen) + int(commentLen)
		if rec.entriesTotal > 0 && len(entries) >= rec.entriesTotal {
			break
		}
	}
	return entries
}

// ZipParser locates the end-of-central-directory record from the tail,
// walks the central directory, and compares declared against found
// entry counts.
type ZipParser struct{}

func (*ZipParser) Family() string { return "zip" }

func (*ZipParser) Parse(s *sniff.Sample) (map[string]any, error) {
	rec, found := findEOCD(s)
	if !found {
		return nil, fmt.Errorf("zip: end of central directory not found")
	}

	cdOffsetOK := rec.cdOffset+rec.cdSize <= s.Size()
	if cdOffsetOK {
		if b, ok := s.ReadAt(rec.cdOffset, 4); ok {
			sig, _ := u32le(b, 0)
			cdOffsetOK = sig == zipCDHSig
		} else {
			cdOffsetOK = rec.cdSize == 0
		}
	}

	entries := walkCentralDirectory(s, rec)
	var utf8Count, crcCount int
	methods := make(map[uint16]bool)
	for _, e := range entries {
		if e.flags&zipFlagUTF8 != 0 {
			utf8Count++
		}
		if e.crc != 0 {
			crcCount++
		}
		methods[e.method] = true
	}

	utf8Fraction, crcFraction := 0.0, 0.0
	if len(entries) > 0 {
		utf8Fraction = float64(utf8Count) / float64(len(entries))
		crcFraction = float64(crcCount) / float64(len(entries))
	}

	cdComplete := len(entries) == rec.entriesTotal
	parserOK := cdComplete && cdOffsetOK && len(entries) >= 1
	return map[string]any{
		"zip_eocd_found":               true,
		"zip_entry_count_declared":     rec.entriesTotal,
		"zip_entry_count_found":        len(entries),
		"zip_cd_offset_ok":             cdOffsetOK,
		"zip_compression_method_count": len(methods),
		"zip_names_utf8_fraction":      utf8Fraction,
		"zip_crc_present_fraction":     crcFraction,
		"zip_comment_len":              rec.commentLen,
		keyParserOK:                    parserOK,
		keyStructureConsistent:         parserOK && crcFraction >= 0.65,
	}, nil
}
