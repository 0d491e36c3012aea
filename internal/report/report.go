package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// Writer renders window reports as they close and the final run result.
type Writer interface {
	WriteWindow(report *models.WindowReport) error
	WriteFinal(result *models.RunResult) error
	Close() error
}

// Options are shared by every writer of one run.
type Options struct {
	RunID       string
	Mode        models.Mode
	Out         io.Writer
	OutputDir   string
	CSVFile     string
	CSVAppend   bool
	ShowCurrent bool
	Verbosity   int
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// Factory builds a writer for one run.
type Factory func(opts Options) (Writer, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a writer factory under a format name. Registering a name
// twice panics.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("report format '%s' already registered", name))
	}
	registry[name] = factory
}

// New creates the writer registered under name.
func New(name string, opts Options) (Writer, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown report format: '%s'", name)
	}
	w, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("error creating report format '%s': %w", name, err)
	}
	return w, nil
}

// Formats lists the registered format names.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds one writer per format. Writers already built are closed if
// a later one fails.
func Create(formats []string, opts Options) (Multi, error) {
	var writers Multi
	for _, name := range formats {
		w, err := New(name, opts)
		if err != nil {
			_ = writers.Close()
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, nil
}

// Multi fans every call out to all writers and joins their errors.
type Multi []Writer

func (m Multi) WriteWindow(report *models.WindowReport) error {
	var errs []error
	for _, w := range m {
		if err := w.WriteWindow(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) WriteFinal(result *models.RunResult) error {
	var errs []error
	for _, w := range m {
		if err := w.WriteFinal(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tee opens path and returns a writer duplicating everything written to w
// into it. The returned closer closes the file only.
func Tee(w io.Writer, path string) (io.Writer, io.Closer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return io.MultiWriter(w, f), f, nil
}

func init() {
	Register("text", NewTextWriter)
	Register("csv", NewCSVWriter)
	Register("json", NewJSONWriter)
	Register("yaml", NewYAMLWriter)
}
