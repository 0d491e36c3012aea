package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

var (
	csvHeader = []string{
		"Name", "TP", "TN", "FP", "FN", "TPR", "TNR", "FPR", "FNR", "Precision", "Accuracy", "ErrorRate",
		"fmeasure1", "fmeasure2", "fmeasure05", "B1", "B2", "B3", "B4", "B5",
	}
	weightedCSVHeader = []string{
		"Name", "t_TP", "t_TN", "t_FP", "t_FN", "t_TPR", "t_TNR", "t_FPR", "t_FNR", "t_Precision", "t_Accuracy", "t_ErrorRate",
		"t_fmeasure1", "t_fmeasure2", "t_fmeasure05", "t_B1", "t_B2", "t_B3", "t_B4", "t_B5",
	}
)

// CSVWriter writes the final cumulative scores of every algorithm. In
// weight mode the weighted scores are written instead.
type CSVWriter struct {
	path   string
	append bool
}

func NewCSVWriter(opts Options) (Writer, error) {
	path := opts.CSVFile
	if path == "" {
		path = filepath.Join(opts.OutputDir, "results.csv")
	}
	return &CSVWriter{path: path, append: opts.CSVAppend}, nil
}

func (w *CSVWriter) Path() string {
	return w.path
}

func (w *CSVWriter) WriteWindow(*models.WindowReport) error {
	return nil
}

func (w *CSVWriter) WriteFinal(result *models.RunResult) error {
	flags := os.O_CREATE | os.O_WRONLY
	if w.append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(w.path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	weighted := result.Run.Mode == models.ModeWeight
	if weighted {
		err = cw.Write(weightedCSVHeader)
	} else {
		err = cw.Write(csvHeader)
	}
	if err != nil {
		return err
	}

	for _, a := range result.Algorithms {
		var row []string
		if weighted {
			if a.Weighted == nil {
				continue
			}
			row = weightedRow(a.Name, a.Weighted.Cumulative, a.Weighted.CumulativeMetrics)
		} else {
			row = countsRow(a.Name, a.Cumulative, a.CumulativeMetrics)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}
	return nil
}

func (w *CSVWriter) Close() error {
	return nil
}

func countsRow(name string, c models.ConfusionCounts, m models.DerivedMetrics) []string {
	return []string{
		name,
		strconv.FormatInt(c.TP, 10), strconv.FormatInt(c.TN, 10),
		strconv.FormatInt(c.FP, 10), strconv.FormatInt(c.FN, 10),
		rate(m.TPR, 3), rate(m.TNR, 3), rate(m.FPR, 3), rate(m.FNR, 3),
		rate(m.Precision, 4), rate(m.Accuracy, 4), rate(m.ErrorRate, 3),
		rate(m.F1, 4), rate(m.F2, 4), rate(m.F05, 4),
		strconv.FormatInt(c.B1, 10), strconv.FormatInt(c.B2, 10), strconv.FormatInt(c.B3, 10),
		strconv.FormatInt(c.B4, 10), strconv.FormatInt(c.B5, 10),
	}
}

func weightedRow(name string, c models.WeightedCounts, m models.DerivedMetrics) []string {
	return []string{
		name,
		rate(c.TP, 4), rate(c.TN, 4), rate(c.FP, 4), rate(c.FN, 4),
		rate(m.TPR, 3), rate(m.TNR, 3), rate(m.FPR, 3), rate(m.FNR, 3),
		rate(m.Precision, 4), rate(m.Accuracy, 4), rate(m.ErrorRate, 3),
		rate(m.F1, 4), rate(m.F2, 4), rate(m.F05, 4),
		rate(c.B1, 4), rate(c.B2, 4), rate(c.B3, 4), rate(c.B4, 4), rate(c.B5, 4),
	}
}

func rate(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
