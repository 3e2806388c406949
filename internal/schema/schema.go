// Package schema loads and validates the feature schema: the ordered
// per-family feature declarations plus the global knobs consumed by the
// sniffer and the extractor. A Schema is built once at startup and is
// safe for unsynchronized concurrent reads.
package schema

import (
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/feature"
)

// Global holds process-wide settings declared alongside the feature
// definitions.
type Global struct {
	HeadBytes           int      `yaml:"head_bytes"`
	TailBytes           int      `yaml:"tail_bytes"`
	MinSizeBytes        int64    `yaml:"min_size_bytes"`
	EnabledFamilies     []string `yaml:"enabled_families"`
	FallbackMaxAttempts int      `yaml:"fallback_max_attempts"`
	Workers             int      `yaml:"workers"`
}

const (
	defaultHeadBytes        = 16384
	defaultTailBytes        = 16384
	defaultFallbackAttempts = 4
)

// Schema is the validated, immutable feature schema.
type Schema struct {
	Global Global

	defs     []feature.Def
	byName   map[string]feature.Def
	byFamily map[string][]feature.Def
	enabled  map[string]bool
}

// Defs returns all feature definitions in declaration order.
// The returned slice must not be modified.
func (s *Schema) Defs() []feature.Def {
	return s.defs
}

// Names returns all declared feature names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.defs))
	for i, d := range s.defs {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the definition of a declared feature.
func (s *Schema) Lookup(name string) (feature.Def, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Family returns the definitions owned by one family, in declaration order.
func (s *Schema) Family(family string) []feature.Def {
	return s.byFamily[family]
}

// FamilyEnabled reports whether a format family is in the enabled set.
// An empty enabled_families list enables every family that declares
// features.
func (s *Schema) FamilyEnabled(family string) bool {
	if len(s.enabled) == 0 {
		_, ok := s.byFamily[family]
		return ok && family != feature.FamilyCommon
	}
	return s.enabled[family]
}

// EnabledFamilies returns the enabled family set as a map for cheap
// membership checks.
func (s *Schema) EnabledFamilies() map[string]bool {
	out := make(map[string]bool, len(s.byFamily))
	for fam := range s.byFamily {
		if s.FamilyEnabled(fam) {
			out[fam] = true
		}
	}
	return out
}

// build validates the raw declarations and assembles the immutable Schema.
func build(g Global, families []rawFamily) (*Schema, error) {
	if g.HeadBytes <= 0 {
		g.HeadBytes = defaultHeadBytes
	}
	if g.TailBytes <= 0 {
		g.TailBytes = defaultTailBytes
	}

	s := &Schema{
		Global:   g,
		byName:   make(map[string]feature.Def),
		byFamily: make(map[string][]feature.Def),
		enabled:  make(map[string]bool),
	}
	for _, fam := range g.EnabledFamilies {
		s.enabled[fam] = true
	}

	for _, fam := range families {
		if fam.name == "" {
			return nil, fmt.Errorf("schema: family with empty name")
		}
		for _, rf := range fam.features {
			if rf.Name == "" {
				return nil, fmt.Errorf("schema: family %q: feature with empty name", fam.name)
			}
			typ, err := feature.ParseType(rf.Type)
			if err != nil {
				return nil, fmt.Errorf("schema: feature %q: %w", rf.Name, err)
			}
			if _, dup := s.byName[rf.Name]; dup {
				return nil, fmt.Errorf("schema: duplicate feature name %q", rf.Name)
			}
			def := feature.Def{
				Name:    rf.Name,
				Type:    typ,
				Family:  fam.name,
				Default: typ.Zero(),
			}
			if rf.Default != nil {
				v, ok := typ.Normalize(rf.Default)
				if !ok {
					return nil, fmt.Errorf("schema: feature %q: default %v does not match type %s", rf.Name, rf.Default, typ)
				}
				def.Default = v
			}
			s.defs = append(s.defs, def)
			s.byName[def.Name] = def
			s.byFamily[fam.name] = append(s.byFamily[fam.name], def)
		}
	}
	if len(s.defs) == 0 {
		return nil, fmt.Errorf("schema: no features declared")
	}
	if len(s.byFamily[feature.FamilyCommon]) == 0 {
		return nil, fmt.Errorf("schema: missing %q family", feature.FamilyCommon)
	}
	return s, nil
}
