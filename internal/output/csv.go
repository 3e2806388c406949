package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/imno34/Ransomware-files-ML-Detection/internal/extract"
)

// CSVFormatter writes one row per file: a path column followed by every
// schema column in declaration order.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(w io.Writer, batch *extract.Batch) error {
	cw := csv.NewWriter(w)
	header := append([]string{"path"}, batch.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, r := range batch.Rows {
		row[0] = r.Path
		for i, name := range batch.Columns {
			v, _ := r.Record.Get(name)
			row[i+1] = formatValue(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatValue renders one feature value as a CSV cell.
func formatValue(v any) string {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	default:
		return ""
	}
}
