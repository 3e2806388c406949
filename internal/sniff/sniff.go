// Package sniff identifies a file's container format from magic
// signatures in bounded head/tail byte windows.
package sniff

import (
	"bytes"
	"math"
)

// FamilyUnknown is the format family reported when no enabled signature
// matches.
const FamilyUnknown = "unknown"

// Config carries the sniffer knobs from the global schema settings.
type Config struct {
	// EnabledFamilies limits which families may be reported as
	// format_family. Families outside the set still contribute to
	// magic_ok / magic_family.
	EnabledFamilies map[string]bool
	// FallbackMaxAttempts bounds how many refinement probes run on an
	// ambiguous outer signature (a package format inside a generic
	// archive). Zero or negative disables refinement: the outer family
	// wins immediately.
	FallbackMaxAttempts int
}

// Result is the outcome of signature matching for one file.
type Result struct {
	FormatFamily        string
	MagicOK             bool
	MagicFamily         string
	SizeBytes           int64
	LogSize             float64
	FallbackMaxAttempts int
}

// CommonValues returns the sniffer-derived features keyed by their
// schema names, for overlay by the aggregator.
func (r Result) CommonValues() map[string]any {
	return map[string]any{
		"size_bytes":    int(r.SizeBytes),
		"log_size":      r.LogSize,
		"magic_ok":      r.MagicOK,
		"magic_family":  r.MagicFamily,
		"format_family": r.FormatFamily,
	}
}

// Broad signature classes reported as magic_family.
const (
	ClassArchive    = "archive"
	ClassImage      = "image"
	ClassDocument   = "document"
	ClassVideo      = "video"
	ClassAudio      = "audio"
	ClassCompressed = "compressed"
	ClassExecutable = "executable"
	ClassDatabase   = "database"
	ClassUnknown    = "unknown"
)

// signature is one ordered matching rule. Order encodes precedence:
// earlier rules win, and a rule may refine into a more specific family
// via its probe.
type signature struct {
	family string
	class  string
	match  func(s *Sample) bool
	// refine, when set, may upgrade the match to a more specific
	// family. It is called at most cfg.FallbackMaxAttempts times with
	// increasing probe indexes and returns the refined family name or
	// "" to keep probing.
	refine func(s *Sample, probe int) string
}

// signatures lists every known magic pattern, most specific first.
// Formats whose container is another format (ooxml over zip) are
// handled by refinement on the generic rule rather than a separate
// entry, so the outer signature is only tested once.
var signatures = []signature{
	{family: "pdf", class: ClassDocument, match: func(s *Sample) bool { return bytes.HasPrefix(s.Head(), []byte("%PDF-")) }},
	{family: "png", class: ClassImage, match: func(s *Sample) bool { return bytes.HasPrefix(s.Head(), []byte("\x89PNG\r\n\x1a\n")) }},
	{family: "jpeg", class: ClassImage, match: func(s *Sample) bool { return bytes.HasPrefix(s.Head(), []byte{0xFF, 0xD8, 0xFF}) }},
	{family: "gzip", class: ClassCompressed, match: func(s *Sample) bool { return bytes.HasPrefix(s.Head(), []byte{0x1F, 0x8B, 0x08}) }},
	{family: "ole2", class: ClassDocument, match: func(s *Sample) bool { return bytes.HasPrefix(s.Head(), []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}) }},
	{family: "rar", class: ClassArchive, match: func(s *Sample) bool {
		h := s.Head()
		return bytes.HasPrefix(h, []byte("Rar!\x1a\x07\x00")) || bytes.HasPrefix(h, []byte("Rar!\x1a\x07\x01\x00"))
	}},
	{family: "mp4", class: ClassVideo, match: func(s *Sample) bool {
		h := s.Head()
		return len(h) >= 12 && bytes.Equal(h[4:8], []byte("ftyp"))
	}},
	{family: "zip", class: ClassArchive, match: isZip, refine: refineZip},

	// Recognized signatures with no structural parser. They only feed
	// magic_ok / magic_family.
	{family: "gif", class: ClassImage, match: prefixAny("GIF87a", "GIF89a")},
	{family: "webp", class: ClassImage, match: riff("WEBP")},
	{family: "wav", class: ClassAudio, match: riff("WAVE")},
	{family: "flac", class: ClassAudio, match: prefixAny("fLaC")},
	{family: "mp3", class: ClassAudio, match: isMP3},
	{family: "bzip2", class: ClassCompressed, match: prefixAny("BZh")},
	{family: "lz4", class: ClassCompressed, match: prefixAny("\x04\x22\x4d\x18")},
	{family: "zstd", class: ClassCompressed, match: prefixAny("\x28\xb5\x2f\xfd")},
	{family: "7z", class: ClassArchive, match: prefixAny("7z\xbc\xaf\x27\x1c")},
	{family: "sqlite", class: ClassDatabase, match: prefixAny("SQLite format 3\x00")},
	{family: "tar", class: ClassArchive, match: isTar},
	{family: "pe", class: ClassExecutable, match: prefixAny("MZ")},
	{family: "elf", class: ClassExecutable, match: prefixAny("\x7fELF")},
}

// classOf maps each signature family to its broad class.
var classOf = func() map[string]string {
	m := make(map[string]string, len(signatures)+1)
	for _, sig := range signatures {
		m[sig.family] = sig.class
	}
	m["ooxml"] = ClassDocument
	return m
}()

// Sniff matches the ordered signature list against a captured sample.
func Sniff(s *Sample, cfg Config) Result {
	res := Result{
		FormatFamily:        FamilyUnknown,
		MagicFamily:         ClassUnknown,
		SizeBytes:           s.Size(),
		FallbackMaxAttempts: cfg.FallbackMaxAttempts,
	}
	if s.Size() > 0 {
		res.LogSize = math.Log10(float64(s.Size()) + 1)
	}

	for _, sig := range signatures {
		if !sig.match(s) {
			continue
		}
		family := sig.family
		if sig.refine != nil {
			for probe := 0; probe < cfg.FallbackMaxAttempts; probe++ {
				if refined := sig.refine(s, probe); refined != "" {
					family = refined
					break
				}
			}
		}
		res.MagicOK = true
		res.MagicFamily = classOf[family]
		if cfg.EnabledFamilies[family] {
			res.FormatFamily = family
		} else if family != sig.family && cfg.EnabledFamilies[sig.family] {
			// Refined family disabled: fall back to the outer one.
			res.FormatFamily = sig.family
			res.MagicFamily = classOf[sig.family]
		}
		return res
	}
	return res
}

func prefixAny(prefixes ...string) func(*Sample) bool {
	return func(s *Sample) bool {
		for _, p := range prefixes {
			if bytes.HasPrefix(s.Head(), []byte(p)) {
				return true
			}
		}
		return false
	}
}

func riff(kind string) func(*Sample) bool {
	return func(s *Sample) bool {
		h := s.Head()
		return len(h) >= 12 && bytes.Equal(h[0:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte(kind))
	}
}

func isZip(s *Sample) bool {
	h := s.Head()
	return bytes.HasPrefix(h, []byte("PK\x03\x04")) || bytes.HasPrefix(h, []byte("PK\x05\x06")) || bytes.HasPrefix(h, []byte("PK\x07\x08"))
}

func isMP3(s *Sample) bool {
	h := s.Head()
	if bytes.HasPrefix(h, []byte("ID3")) {
		return true
	}
	return len(h) >= 2 && h[0] == 0xFF && h[1]&0xE0 == 0xE0
}

func isTar(s *Sample) bool {
	// The ustar magic sits at offset 257, past any useful prefix.
	b, ok := s.ReadAt(257, 6)
	if !ok || len(b) < 6 {
		return false
	}
	return bytes.Equal(b, []byte("ustar\x00")) || bytes.Equal(b, []byte("ustar "))
}

// Markers that distinguish an OOXML package from a plain zip archive.
var (
	contentTypesName = []byte("[Content_Types].xml")
	ooxmlDirs        = [][]byte{[]byte("word/"), []byte("xl/"), []byte("ppt/")}
)

// refineZip probes a zip-signed sample for OOXML package markers. Each
// probe index checks one window, so the total probing work stays
// bounded by the configured attempt budget on adversarial archives that
// mimic several formats at once.
func refineZip(s *Sample, probe int) string {
	switch probe {
	case 0:
		// Central directory entry names live in the tail window.
		if bytes.Contains(s.Tail(), contentTypesName) && containsAny(s.Tail(), ooxmlDirs) {
			return "ooxml"
		}
	case 1:
		// Small packages: local headers in the head window.
		if bytes.Contains(s.Head(), contentTypesName) && containsAny(s.Head(), ooxmlDirs) {
			return "ooxml"
		}
	}
	return ""
}

func containsAny(b []byte, subs [][]byte) bool {
	for _, sub := range subs {
		if bytes.Contains(b, sub) {
			return true
		}
	}
	return false
}
