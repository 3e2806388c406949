package schema

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/schema/builtin"
)

// maxSchemaFileSize caps the size of a schema file (1 MB).
const maxSchemaFileSize = 1 << 20

// rawFeature is a single feature declaration as written in YAML.
type rawFeature struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default any    `yaml:"default"`
}

// rawFamily keeps a family's declarations together with its position in
// the document, so record column order follows the YAML file.
type rawFamily struct {
	name     string
	features []rawFeature
}

type rawSchema struct {
	Global   Global    `yaml:"global"`
	Features yaml.Node `yaml:"features"`
}

// Parse decodes and validates schema YAML. Unknown keys are rejected;
// family order and feature order follow the document.
func Parse(data []byte) (*Schema, error) {
	// Seed the attempt budget before decoding so an explicit
	// fallback_max_attempts: 0 (refinement off) survives, while an
	// absent key gets the default.
	raw := rawSchema{Global: Global{FallbackMaxAttempts: defaultFallbackAttempts}}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	families, err := decodeFamilies(&raw.Features)
	if err != nil {
		return nil, err
	}
	return build(raw.Global, families)
}

// decodeFamilies walks the `features` mapping node in document order.
// Decoding into a Go map would lose the declaration order the record
// format depends on.
func decodeFamilies(node *yaml.Node) ([]rawFamily, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, fmt.Errorf("parsing schema: missing features section")
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing schema: features must be a mapping of family to feature list")
	}
	var families []rawFamily
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]
		var feats []rawFeature
		if err := valNode.Decode(&feats); err != nil {
			return nil, fmt.Errorf("parsing schema: family %q: %w", keyNode.Value, err)
		}
		families = append(families, rawFamily{name: keyNode.Value, features: feats})
	}
	return families, nil
}

// Load reads and validates a schema file from disk.
func Load(path string) (*Schema, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxSchemaFileSize {
		return nil, fmt.Errorf("schema file too large: %s (%d bytes, max 1 MB)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Default returns the built-in schema embedded in the binary.
func Default() (*Schema, error) {
	data, err := builtin.FS().ReadFile("features.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading built-in schema: %w", err)
	}
	return Parse(data)
}
