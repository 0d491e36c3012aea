package flowlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

const maxLineBytes = 1 << 20

var ErrHeaderRead = errors.New("header already read")

// Header is the parsed first line of a flow log.
type Header struct {
	Raw    string
	Fields []string
	Layout Layout
}

// Columns maps algorithm names to the field holding their prediction.
type Columns struct {
	GroundTruth int
	Algorithms  map[string]int
}

// Reader turns a labeled flow log into FlowRecords one line at a time.
type Reader struct {
	scanner *bufio.Scanner
	layout  Layout
	header  *Header
	columns Columns
	maxCol  int
	line    int

	flows       int
	labelCounts map[string]int
}

func NewReader(r io.Reader, layout Layout) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	if layout == "" {
		layout = LayoutAuto
	}
	return &Reader{
		scanner:     scanner,
		layout:      layout,
		labelCounts: make(map[string]int),
	}
}

// ReadHeader consumes the first non-blank line, which must start with '#'.
func (r *Reader) ReadHeader() (*Header, error) {
	if r.header != nil {
		return nil, ErrHeaderRead
	}

	for r.scanner.Scan() {
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !strings.HasPrefix(text, "#") {
			return nil, models.MalformedInput(r.line, -1, "first line must be a '#' header line")
		}

		layout := r.layout
		if layout == LayoutAuto {
			layout = DetectLayout(text)
		}
		r.layout = layout
		r.header = &Header{Raw: text, Fields: layout.Split(text), Layout: layout}

		logger.WithFields(map[string]interface{}{
			"layout":  layout,
			"columns": len(r.header.Fields),
		}).Debug("Header line read")
		return r.header, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return nil, models.MalformedInput(0, -1, "input has no header line")
}

func (r *Reader) Layout() Layout {
	return r.layout
}

// Bind tells the reader which fields hold the ground truth and each
// algorithm's prediction.
func (r *Reader) Bind(cols Columns) {
	r.columns = cols
	r.maxCol = cols.GroundTruth
	for _, c := range cols.Algorithms {
		if c > r.maxCol {
			r.maxCol = c
		}
	}
}

// Next returns the next flow record, or io.EOF.
func (r *Reader) Next() (*models.FlowRecord, error) {
	if r.header == nil {
		return nil, errors.New("flow log header not read")
	}

	for r.scanner.Scan() {
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return r.parse(text)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

func (r *Reader) parse(text string) (*models.FlowRecord, error) {
	fields := r.layout.Split(text)
	if len(fields) <= r.maxCol {
		return nil, models.MalformedInput(r.line, len(fields),
			fmt.Sprintf("want at least %d fields, got %d", r.maxCol+1, len(fields)))
	}

	ts, raw, err := r.layout.Timestamp(fields)
	if err != nil {
		e := models.MalformedInput(r.line, 0, fmt.Sprintf("unparseable timestamp %q", raw))
		e.Err = err
		return nil, e
	}

	ip, ok := r.layout.SourceIP(fields)
	if !ok {
		return nil, models.MalformedInput(r.line, sourceIPField, "missing source address")
	}

	truth := r.layout.GroundTruth(fields[r.columns.GroundTruth])
	rec := &models.FlowRecord{
		Line:        r.line,
		Timestamp:   ts,
		SourceIP:    ip,
		GroundTruth: truth,
		Predictions: make(map[string]string, len(r.columns.Algorithms)),
	}
	for name, col := range r.columns.Algorithms {
		rec.Predictions[name] = fields[col]
	}

	r.flows++
	r.labelCounts[truth]++
	return rec, nil
}

// Line is the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) Flows() int {
	return r.flows
}

// LabelCounts returns the number of flows seen per raw ground-truth label.
func (r *Reader) LabelCounts() map[string]int {
	out := make(map[string]int, len(r.labelCounts))
	for k, v := range r.labelCounts {
		out[k] = v
	}
	return out
}
