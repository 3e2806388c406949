// Package output serializes extraction batches to CSV and JSON.
package output

import (
	"fmt"
	"io"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/extract"
)

// Formatter is the interface for serializing a batch of records.
type Formatter interface {
	Format(w io.Writer, batch *extract.Batch) error
}

// New returns the formatter for a format name.
func New(format string) (Formatter, error) {
	switch format {
	case "csv", "":
		return &CSVFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q", format)
	}
}
