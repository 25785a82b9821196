package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// csvHeader lists the CSV columns in order.
var csvHeader = []string{
	"id", "request_id", "kind", "session_id", "scene", "model",
	"status", "error_type", "input_chars", "output_chars", "chunks",
	"created_at", "latency_ms",
}

// Export writes records to w in the given format.
func Export(records []*Record, format string, w io.Writer) error {
	switch format {
	case FormatJSON, "":
		return exportJSON(records, w)
	case FormatCSV:
		return exportCSV(records, w)
	default:
		return &ExportError{Format: format, RecordCount: len(records), Cause: fmt.Errorf("unsupported format")}
	}
}

func exportJSON(records []*Record, w io.Writer) error {
	if records == nil {
		records = []*Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return &ExportError{Format: FormatJSON, RecordCount: len(records), Cause: err}
	}
	return nil
}

func exportCSV(records []*Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return &ExportError{Format: FormatCSV, RecordCount: len(records), Cause: err}
	}

	for _, r := range records {
		row := []string{
			r.ID, r.RequestID, r.Kind, r.SessionID, r.Scene, r.Model,
			r.Status, r.ErrorType,
			strconv.Itoa(r.InputChars),
			strconv.Itoa(r.OutputChars),
			strconv.Itoa(r.Chunks),
			r.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(r.Latency.Milliseconds(), 10),
		}
		if err := writer.Write(row); err != nil {
			return &ExportError{Format: FormatCSV, RecordCount: len(records), Cause: err}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return &ExportError{Format: FormatCSV, RecordCount: len(records), Cause: err}
	}
	return nil
}
