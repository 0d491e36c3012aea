package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// JSONWriter streams window reports as JSON lines into
// <run>.windows.jsonl and writes the run result to <run>.json.
type JSONWriter struct {
	dir     string
	runID   string
	windows *os.File
	enc     *json.Encoder
}

func NewJSONWriter(opts Options) (Writer, error) {
	if opts.RunID == "" {
		return nil, fmt.Errorf("json report needs a run id")
	}
	return &JSONWriter{dir: opts.OutputDir, runID: opts.RunID}, nil
}

func (w *JSONWriter) WindowsPath() string {
	return filepath.Join(w.dir, w.runID+".windows.jsonl")
}

func (w *JSONWriter) ResultPath() string {
	return filepath.Join(w.dir, w.runID+".json")
}

func (w *JSONWriter) WriteWindow(r *models.WindowReport) error {
	if w.windows == nil {
		f, err := os.Create(w.WindowsPath())
		if err != nil {
			return fmt.Errorf("failed to create window report file: %w", err)
		}
		w.windows = f
		w.enc = json.NewEncoder(f)
	}
	return w.enc.Encode(r)
}

func (w *JSONWriter) WriteFinal(result *models.RunResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}
	if err := os.WriteFile(w.ResultPath(), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write run result: %w", err)
	}
	return nil
}

func (w *JSONWriter) Close() error {
	if w.windows == nil {
		return nil
	}
	err := w.windows.Close()
	w.windows = nil
	return err
}
