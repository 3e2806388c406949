package featurize

import (
	"time"

	"github.com/sirupsen/logrus"
)

// config holds the resolved configuration for an extraction.
type config struct {
	schemaPath string
	schema     *Schema
	workers    int
	timeout    time.Duration
	logger     *logrus.Logger
}

// Option configures an extraction operation.
type Option func(*config)

// WithSchemaFile loads the feature schema from a YAML file instead of
// the built-in default.
func WithSchemaFile(path string) Option {
	return func(c *config) {
		c.schemaPath = path
	}
}

// WithSchema uses an already loaded schema.
func WithSchema(s *Schema) Option {
	return func(c *config) {
		c.schema = s
	}
}

// WithWorkers sets the number of concurrent workers (default: the
// schema's workers setting, then NumCPU).
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithPerFileTimeout bounds the wall time spent on any single file.
func WithPerFileTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithLogger routes extraction progress and per-file warnings to a
// custom logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *config) {
		c.logger = log
	}
}
