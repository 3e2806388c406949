package parsers

import (
	"fmt"
	"sort"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

// Registry is the immutable family-to-parser table. It is built once at
// startup from an explicit parser list; there is no runtime discovery.
type Registry struct {
	byFamily map[string]Parser
}

// NewRegistry builds a registry from an enumerated parser list.
// Registering two parsers for the same family is a configuration error
// and fails construction.
func NewRegistry(list ...Parser) (*Registry, error) {
	r := &Registry{byFamily: make(map[string]Parser, len(list))}
	for _, p := range list {
		fam := p.Family()
		if fam == "" {
			return nil, fmt.Errorf("registry: parser with empty family")
		}
		if _, dup := r.byFamily[fam]; dup {
			return nil, fmt.Errorf("registry: duplicate parser for family %q", fam)
		}
		r.byFamily[fam] = p
	}
	return r, nil
}

// All returns one parser per supported format family, in signature
// precedence order.
func All() []Parser {
	return []Parser{
		&GzipParser{},
		&PNGParser{},
		&JPEGParser{},
		&ZipParser{},
		&OOXMLParser{},
		&OLE2Parser{},
		&PDFParser{},
		&RarParser{},
		&MP4Parser{},
	}
}

// Dispatch returns the parser registered for a family, or nil when the
// family is unknown or has no structural decoder. A nil return is not
// an error: the caller leaves that family's features at their schema
// defaults.
func (r *Registry) Dispatch(family string) Parser {
	return r.byFamily[family]
}

// Families returns the registered family names, sorted.
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.byFamily))
	for fam := range r.byFamily {
		out = append(out, fam)
	}
	sort.Strings(out)
	return out
}

// Run dispatches and executes the parser for res.FormatFamily on s.
// It returns nil when no parser is registered for the family or the
// parser could not decode the sample; err carries the decode failure
// reason for diagnostics.
func (r *Registry) Run(res sniff.Result, s *sniff.Sample) (map[string]any, error) {
	p := r.Dispatch(res.FormatFamily)
	if p == nil {
		return nil, nil
	}
	return Parse(p, s)
}
