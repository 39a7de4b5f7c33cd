package formatter

import (
	"encoding/json"
	"io"

	"github.com/boshu2/prmetrics/internal/cycletime"
)

// JSONLFormatter outputs derived metrics as JSON Lines.
// Each pull request is a single JSON object on one line; absent metrics are
// omitted rather than written as null or zero.
type JSONLFormatter struct {
	// Pretty enables indented JSON (not recommended for JSONL).
	Pretty bool
}

// NewJSONLFormatter creates a new JSONL formatter.
func NewJSONLFormatter() *JSONLFormatter {
	return &JSONLFormatter{
		Pretty: false,
	}
}

// Format writes one line per row.
func (jf *JSONLFormatter) Format(w io.Writer, rows []cycletime.KeyMetrics) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false) // PR titles often contain < > &

	if jf.Pretty {
		encoder.SetIndent("", "  ")
	}

	for i := range rows {
		if err := encoder.Encode(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for JSONL.
func (jf *JSONLFormatter) Extension() string {
	return ".jsonl"
}
