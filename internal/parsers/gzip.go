package parsers

import (
	"bytes"
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

// Gzip member header layout (RFC 1952).
const (
	gzipID1      = 0x1F
	gzipID2      = 0x8B
	gzipDeflate  = 8
	gzipBaseHdr  = 10
	gzipFlagHCRC = 0x02
	gzipFlagExtr = 0x04
	gzipFlagName = 0x08
	gzipFlagComm = 0x10
	// Reserved FLG bits; set on anything that is not a real member header.
	gzipFlagReserved = 0xE0
	// CRC32 + ISIZE.
	gzipTrailerLen = 8
)

// GzipParser checks the member header fields, detects concatenated
// members, and verifies that the file is large enough to carry the
// CRC/size trailer.
type GzipParser struct{}

func (*GzipParser) Family() string { return "gzip" }

func (*GzipParser) Parse(s *sniff.Sample) (map[string]any, error) {
	head := s.Head()
	if len(head) < gzipBaseHdr {
		return nil, fmt.Errorf("gzip: sample shorter than member header (%d bytes)", len(head))
	}

	headerOK := head[0] == gzipID1 && head[1] == gzipID2 && head[2] == gzipDeflate
	flg := head[3]
	mtime, _ := u32le(head, 4)

	// Walk the optional header fields after the fixed 10 bytes.
	pos := gzipBaseHdr
	namePresent := false
	if flg&gzipFlagExtr != 0 {
		if xlen, ok := u16le(head, pos); ok {
			pos += 2 + int(xlen)
		} else {
			pos = len(head)
		}
	}
	if pos <= len(head) && flg&gzipFlagName != 0 {
		start := pos
		for pos < len(head) && head[pos] != 0 {
			pos++
		}
		namePresent = pos < len(head) && pos > start
		if pos < len(head) {
			pos++
		}
	}
	if flg&gzipFlagComm != 0 {
		for pos < len(head) && head[pos] != 0 {
			pos++
		}
		if pos < len(head) {
			pos++
		}
	}
	if flg&gzipFlagHCRC != 0 {
		pos += 2
	}
	if pos > len(head) {
		pos = len(head)
	}

	// Concatenated members repeat the magic verbatim in the stream.
	// Without inflating the payload this is a bounded scan of the head
	// window for further plausible member headers. Deflate output can
	// contain the magic by coincidence, so a candidate must also carry a
	// clean FLG byte and an assigned OS code (RFC 1952: 0-13, or 255
	// for unknown) to count.
	memberCount := 0
	if headerOK {
		memberCount = 1
		for at := gzipBaseHdr; ; at += 3 {
			idx := bytes.Index(head[at:], []byte{gzipID1, gzipID2, gzipDeflate})
			if idx < 0 {
				break
			}
			at += idx
			if at+gzipBaseHdr > len(head) {
				break
			}
			if head[at+3]&gzipFlagReserved == 0 && (head[at+9] <= 13 || head[at+9] == 0xFF) {
				memberCount++
			}
		}
	}

	// Minimum viable member: header + 2-byte empty deflate block + trailer.
	trailerPresent := headerOK && s.Size() >= int64(pos)+2+gzipTrailerLen

	return map[string]any{
		"gzip_header_ok":       headerOK,
		"gzip_member_count":    memberCount,
		"gzip_trailer_present": trailerPresent,
		"gzip_mtime_present":   mtime != 0,
		"gzip_name_present":    namePresent,
		keyParserOK:            headerOK,
		keyStructureConsistent: headerOK && trailerPresent,
	}, nil
}
