package output

import (
	"encoding/json"
	"io"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/extract"
)

// JSONFormatter outputs the batch as a JSON document. Record fields
// keep schema declaration order, so identical inputs serialize to
// byte-identical documents.
type JSONFormatter struct{}

type jsonRow struct {
	Path     string         `json:"path"`
	Features json.Marshaler `json:"features"`
}

type jsonBatch struct {
	RunID       string    `json:"run_id"`
	FilesSeen   int       `json:"files_seen"`
	FilesFailed int       `json:"files_failed"`
	DurationMS  int64     `json:"duration_ms"`
	Rows        []jsonRow `json:"rows"`
}

func (f *JSONFormatter) Format(w io.Writer, batch *extract.Batch) error {
	doc := jsonBatch{
		RunID:       batch.RunID,
		FilesSeen:   batch.FilesSeen,
		FilesFailed: batch.FilesFailed,
		DurationMS:  batch.Duration.Milliseconds(),
		Rows:        make([]jsonRow, 0, len(batch.Rows)),
	}
	for _, r := range batch.Rows {
		doc.Rows = append(doc.Rows, jsonRow{Path: r.Path, Features: r.Record})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
