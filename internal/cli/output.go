package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hoopwithher/polystore/internal/document"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Result is the standard JSON envelope for CLI output.
type Result struct {
	Status string `json:"status"`         // "ok" or "error"
	Data   any    `json:"data,omitempty"` // success payload
	Error  string `json:"error,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Result{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Documents outputs a document list, one JSON object per line in text
// mode so the output pipes cleanly into line-oriented tooling.
func (f *OutputFormatter) Documents(docs []document.Document) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Result{Status: "ok", Data: docs})
	}
	for _, doc := range docs {
		line, err := doc.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f.Writer, string(line)); err != nil {
			return err
		}
	}
	return nil
}
