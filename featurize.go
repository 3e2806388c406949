// Package featurize provides a public API for structural feature
// extraction from files: signature sniffing, per-format binary
// decoding, and aggregation into schema-complete records for
// downstream ML pipelines.
//
// This is the library entry point. For the CLI tool, see cmd/featurize/.
package featurize

import (
	"context"
	"fmt"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/extract"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/feature"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/parsers"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/schema"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/sniff"
)

// Re-export core types from internal packages so consumers don't need
// to import them directly.
type (
	Record      = feature.Record
	Batch       = extract.Batch
	Row         = extract.Row
	Schema      = schema.Schema
	SniffResult = sniff.Result
	Sample      = sniff.Sample
)

// ExtractDir walks a directory (or accepts a single file) and returns a
// batch with one schema-complete record per qualifying file.
func ExtractDir(ctx context.Context, root string, opts ...Option) (*Batch, error) {
	e, _, err := buildExtractor(opts)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, root)
}

// ExtractFile returns the schema-complete record for one file.
func ExtractFile(ctx context.Context, path string, opts ...Option) (*Record, error) {
	e, _, err := buildExtractor(opts)
	if err != nil {
		return nil, err
	}
	return e.File(ctx, path)
}

// SniffFile captures bounded head/tail windows of a file and reports
// the detected format family and magic metadata.
func SniffFile(path string, opts ...Option) (SniffResult, error) {
	cfg := applyOpts(opts)
	s, err := loadSchema(cfg)
	if err != nil {
		return SniffResult{}, err
	}
	sample, err := sniff.CaptureFile(path, s.Global.HeadBytes, s.Global.TailBytes)
	if err != nil {
		return SniffResult{}, err
	}
	return sniff.Sniff(sample, sniff.Config{
		EnabledFamilies:     s.EnabledFamilies(),
		FallbackMaxAttempts: s.Global.FallbackMaxAttempts,
	}), nil
}

// Families returns the format families with a registered structural
// parser, sorted.
func Families() []string {
	reg, err := parsers.NewRegistry(parsers.All()...)
	if err != nil {
		// The built-in parser list is static; a duplicate here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return reg.Families()
}

// LoadSchema loads and validates a schema file, or the built-in
// default when path is empty.
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return schema.Default()
	}
	return schema.Load(path)
}

// --- internal helpers ---

func applyOpts(opts []Option) *config {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func loadSchema(cfg *config) (*Schema, error) {
	if cfg.schema != nil {
		return cfg.schema, nil
	}
	s, err := LoadSchema(cfg.schemaPath)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return s, nil
}

// buildExtractor wires a fully configured extractor over the immutable
// schema and parser registry.
func buildExtractor(opts []Option) (*extract.Extractor, *Schema, error) {
	cfg := applyOpts(opts)
	s, err := loadSchema(cfg)
	if err != nil {
		return nil, nil, err
	}
	reg, err := parsers.NewRegistry(parsers.All()...)
	if err != nil {
		return nil, nil, err
	}
	e := extract.New(s, reg, cfg.workers)
	if cfg.timeout > 0 {
		e.SetTimeout(cfg.timeout)
	}
	if cfg.logger != nil {
		e.SetLogger(cfg.logger)
	}
	return e, s, nil
}
