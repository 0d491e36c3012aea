package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// YAMLWriter writes the run result, including the per-window metric series
// of the ranking, to <run>.yaml.
type YAMLWriter struct {
	path string
}

func NewYAMLWriter(opts Options) (Writer, error) {
	if opts.RunID == "" {
		return nil, fmt.Errorf("yaml report needs a run id")
	}
	return &YAMLWriter{path: filepath.Join(opts.OutputDir, opts.RunID+".yaml")}, nil
}

func (w *YAMLWriter) Path() string {
	return w.path
}

func (w *YAMLWriter) WriteWindow(*models.WindowReport) error {
	return nil
}

func (w *YAMLWriter) WriteFinal(result *models.RunResult) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create yaml report: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode yaml report: %w", err)
	}
	return enc.Close()
}

func (w *YAMLWriter) Close() error {
	return nil
}
