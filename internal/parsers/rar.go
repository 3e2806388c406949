package parsers

import (
	"bytes"
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

var (
	rar4Signature = []byte("Rar!\x1a\x07\x00")
	rar5Signature = []byte("Rar!\x1a\x07\x01\x00")
)

// RAR4 block layout and flags.
const (
	rar4HeaderLen   = 7
	rar4BlockMain   = 0x73
	rar4BlockFile   = 0x74
	rar4BlockEndArc = 0x7B
	rar4FlagAddSize = 0x8000
	// MAIN_HEAD flag: archive headers are encrypted.
	rar4FlagPassword = 0x0080

	rarMaxBlocks = 100000
)

// RAR5 header types and flags.
const (
	rar5TypeFile       = 2
	rar5TypeEncryption = 4
	rar5FlagExtraArea  = 0x01
	rar5FlagDataArea   = 0x02
)

// readVint decodes a RAR5 variable-length integer, at most 10 bytes.
func readVint(b []byte, off int) (val uint64, n int, ok bool) {
	for i := 0; i < 10 && off+i < len(b); i++ {
		c := b[off+i]
		val |= uint64(c&0x7F) << (7 * i)
		if c&0x80 == 0 {
			return val, i + 1, true
		}
	}
	return 0, 0, false
}

// RarParser detects the signature generation, walks the block sequence,
// and reports whether the archive headers are encrypted.
type RarParser struct{}

func (*RarParser) Family() string { return "rar" }

func (p *RarParser) Parse(s *sniff.Sample) (map[string]any, error) {
	head := s.Head()
	switch {
	case bytes.HasPrefix(head, rar5Signature):
		return p.parseV5(s)
	case bytes.HasPrefix(head, rar4Signature):
		return p.parseV4(s)
	default:
		return nil, fmt.Errorf("rar: missing signature")
	}
}

// parseV4 walks the legacy 7-byte block headers.
func (*RarParser) parseV4(s *sniff.Sample) (map[string]any, error) {
	head := s.Head()
	size := s.Size()

	var blockCount, fileCount int
	var seenMain, encrypted bool
	pos := int64(len(rar4Signature))

	for steps := 0; pos+rar4HeaderLen <= size && steps < rarMaxBlocks; steps++ {
		if pos+rar4HeaderLen > int64(len(head)) {
			break // header past the head window
		}
		at := int(pos)
		blockType := head[at+2]
		flags, _ := u16le(head, at+3)
		headSize, _ := u16le(head, at+5)
		if headSize < rar4HeaderLen {
			break
		}

		var addSize uint32
		if flags&rar4FlagAddSize != 0 {
			v, ok := u32le(head, at+rar4HeaderLen)
			if !ok {
				break
			}
			addSize = v
		}
		total := int64(headSize) + int64(addSize)
		if pos+total > size {
			break // declared block overruns the file
		}

		blockCount++
		switch blockType {
		case rar4BlockMain:
			seenMain = true
			encrypted = flags&rar4FlagPassword != 0
		case rar4BlockFile:
			fileCount++
		}
		pos += total
		if blockType == rar4BlockEndArc {
			break
		}
	}

	parserOK := blockCount > 0 && seenMain
	return map[string]any{
		"rar_archive_version":   "v4",
		"rar_block_count":       blockCount,
		"rar_file_record_count": fileCount,
		"rar_headers_encrypted": encrypted,
		keyParserOK:             parserOK,
		keyStructureConsistent:  parserOK && fileCount > 0,
	}, nil
}

// parseV5 walks the modern block sequence: CRC32, then vint header
// size, then a vint type and flags inside the header area.
func (*RarParser) parseV5(s *sniff.Sample) (map[string]any, error) {
	head := s.Head()
	size := s.Size()

	var blockCount, fileCount int
	var encrypted, sawBlock bool
	pos := int64(len(rar5Signature))

	for steps := 0; pos+5 <= size && steps < rarMaxBlocks; steps++ {
		if pos+5 > int64(len(head)) {
			break
		}
		at := int(pos) + 4 // skip header CRC32
		hsize, n, ok := readVint(head, at)
		if !ok || hsize == 0 || hsize > 1<<20 {
			break
		}
		hdrStart := at + n
		hdrEnd := int64(hdrStart) + int64(hsize)
		if hdrEnd > size {
			break
		}

		btype, tn, ok := readVint(head, hdrStart)
		if !ok {
			break
		}
		flags, fn, ok := readVint(head, hdrStart+tn)
		if !ok {
			break
		}

		blockCount++
		sawBlock = true
		switch btype {
		case rar5TypeEncryption:
			encrypted = true
		case rar5TypeFile:
			fileCount++
		}

		var dataSize uint64
		cursor := hdrStart + tn + fn
		if flags&rar5FlagExtraArea != 0 {
			if _, en, ok := readVint(head, cursor); ok {
				cursor += en
			} else {
				break
			}
		}
		if flags&rar5FlagDataArea != 0 {
			v, _, ok := readVint(head, cursor)
			if !ok {
				break
			}
			dataSize = v
		}
		next := hdrEnd + int64(dataSize)
		if next <= pos || next > size {
			break
		}
		pos = next
	}

	return map[string]any{
		"rar_archive_version":   "v5",
		"rar_block_count":       blockCount,
		"rar_file_record_count": fileCount,
		"rar_headers_encrypted": encrypted,
		keyParserOK:             sawBlock,
		keyStructureConsistent:  sawBlock && !encrypted,
	}, nil
}
