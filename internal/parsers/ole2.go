package parsers

import (
	"bytes"
	"fmt"
	"unicode/utf16"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

var ole2Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Compound file binary format constants.
const (
	oleHeaderLen   = 512
	oleDirEntryLen = 128
	oleFreeSect    = 0xFFFFFFFF
	oleEndOfChain  = 0xFFFFFFFE
	oleMaxSectors  = 8192

	oleTypeStorage     = 1
	oleTypeStream      = 2
	oleTypeRootStorage = 5
)

type oleHeader struct {
	sectorSize     int
	miniSectorSize int
	firstDirSector uint32
	difat          []uint32
	firstDIFAT     uint32
	numDIFAT       uint32
}

func parseOLEHeader(data []byte) (*oleHeader, error) {
	if len(data) < oleHeaderLen {
		return nil, fmt.Errorf("ole2: sample shorter than header")
	}
	if !bytes.Equal(data[:8], ole2Signature) {
		return nil, fmt.Errorf("ole2: missing signature")
	}
	sectorShift, _ := u16le(data, 0x1E)
	miniShift, _ := u16le(data, 0x20)
	firstDir, _ := u32le(data, 0x30)
	firstDIFAT, _ := u32le(data, 0x44)
	numDIFAT, _ := u32le(data, 0x48)

	h := &oleHeader{
		sectorSize:     1 << sectorShift,
		miniSectorSize: 1 << miniShift,
		firstDirSector: firstDir,
		firstDIFAT:     firstDIFAT,
		numDIFAT:       numDIFAT,
	}
	// The header carries the first 109 DIFAT entries inline.
	for i := 0; i < 109; i++ {
		v, _ := u32le(data, 0x4C+4*i)
		h.difat = append(h.difat, v)
	}
	return h, nil
}

// sectorAt serves one sector through the sample windows; false when the
// sector is outside the captured range.
func sectorAt(s *sniff.Sample, sectorSize int, index uint32) ([]byte, bool) {
	off := int64(oleHeaderLen) + int64(index)*int64(sectorSize)
	b, ok := s.ReadAt(off, sectorSize)
	if !ok || len(b) != sectorSize {
		return nil, false
	}
	return b, true
}

// buildFAT assembles the FAT from the header DIFAT plus any chained
// DIFAT sectors, bounded against loops and truncation.
func buildFAT(s *sniff.Sample, h *oleHeader) (fat []uint32, fatOK bool) {
	var fatSectors []uint32
	for _, idx := range h.difat {
		if idx != oleFreeSect {
			fatSectors = append(fatSectors, idx)
		}
	}

	visited := make(map[uint32]bool)
	difatSect := h.firstDIFAT
	remaining := h.numDIFAT
	for difatSect != oleFreeSect && difatSect != oleEndOfChain && remaining > 0 && len(visited) < oleMaxSectors {
		if visited[difatSect] {
			break
		}
		visited[difatSect] = true
		buf, ok := sectorAt(s, h.sectorSize, difatSect)
		if !ok {
			break
		}
		count := h.sectorSize/4 - 1
		for i := 0; i < count; i++ {
			v, _ := u32le(buf, 4*i)
			if v != oleFreeSect {
				fatSectors = append(fatSectors, v)
			}
		}
		next, _ := u32le(buf, h.sectorSize-4)
		difatSect = next
		remaining--
	}

	fatOK = true
	for _, idx := range fatSectors {
		buf, ok := sectorAt(s, h.sectorSize, idx)
		if !ok {
			fatOK = false
			break
		}
		for i := 0; i < h.sectorSize/4; i++ {
			v, _ := u32le(buf, 4*i)
			fat = append(fat, v)
		}
	}
	if len(fat) == 0 {
		fatOK = false
	}
	return fat, fatOK
}

// followChain concatenates the sectors of a FAT chain starting at
// start, stopping on loops, out-of-range links, or the hop budget.
func followChain(s *sniff.Sample, sectorSize int, fat []uint32, start uint32) []byte {
	if start == oleFreeSect || start == oleEndOfChain {
		return nil
	}
	var out []byte
	seen := make(map[uint32]bool)
	cur := start
	for hops := 0; cur != oleFreeSect && cur != oleEndOfChain && hops < oleMaxSectors; hops++ {
		if seen[cur] || int(cur) >= len(fat) {
			break
		}
		seen[cur] = true
		buf, ok := sectorAt(s, sectorSize, cur)
		if !ok {
			break
		}
		out = append(out, buf...)
		cur = fat[cur]
	}
	return out
}

// decodeDirName decodes a directory entry name (UTF-16LE, byte length
// includes the terminating NUL). The name field is 64 bytes; a declared
// length beyond that would decode the adjacent entry fields as name
// characters, so it is clamped.
func decodeDirName(entry []byte) string {
	nameLen, _ := u16le(entry, 0x40)
	if nameLen > 64 {
		nameLen = 64
	}
	nameLen &^= 1
	if nameLen < 2 {
		return ""
	}
	units := make([]uint16, 0, nameLen/2)
	for i := 0; i+1 < int(nameLen); i += 2 {
		u, _ := u16le(entry, i)
		units = append(units, u)
	}
	return string(bytes.TrimRight([]byte(string(utf16.Decode(units))), "\x00"))
}

// OLE2Parser validates the compound-file header, rebuilds the FAT, and
// walks the directory stream for entry counts and well-known streams.
type OLE2Parser struct{}

func (*OLE2Parser) Family() string { return "ole2" }

func (*OLE2Parser) Parse(s *sniff.Sample) (map[string]any, error) {
	h, err := parseOLEHeader(s.Head())
	if err != nil {
		return nil, err
	}
	headerOK := (h.sectorSize == 512 || h.sectorSize == 4096) && h.miniSectorSize <= h.sectorSize

	fat, fatOK := buildFAT(s, h)
	dirStream := followChain(s, h.sectorSize, fat, h.firstDirSector)

	var dirOK, rootPresent, summaryPresent, expectedPresent bool
	var entryCount, streamCount int
	if len(dirStream) >= oleDirEntryLen {
		dirOK = true
		n := len(dirStream) / oleDirEntryLen
		for i := 0; i < n && dirOK; i++ {
			entry := dirStream[i*oleDirEntryLen : (i+1)*oleDirEntryLen]
			objType := entry[0x42]
			switch objType {
			case 0:
				// Unused slot.
			case oleTypeRootStorage:
				rootPresent = true
			case oleTypeStream:
				streamCount++
			case oleTypeStorage:
			default:
				dirOK = false
				continue
			}
			entryCount++
			switch decodeDirName(entry) {
			case "\x05SummaryInformation":
				summaryPresent = true
			case "WordDocument", "Workbook", "PowerPoint Document":
				expectedPresent = true
			}
		}
	}

	parserOK := headerOK && dirOK && rootPresent && fatOK && streamCount >= 1
	return map[string]any{
		"ole_header_ok":             headerOK,
		"ole_sector_size":           h.sectorSize,
		"ole_directory_entry_count": entryCount,
		"ole_stream_count":          streamCount,
		"ole_fat_ok":                fatOK,
		"ole_root_entry_present":    rootPresent,
		"ole_summary_info_present":  summaryPresent,
		keyParserOK:                 parserOK,
		keyStructureConsistent:      parserOK && (expectedPresent || summaryPresent),
	}, nil
}
