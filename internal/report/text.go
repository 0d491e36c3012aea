package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

const nameWidth = 30

// TextWriter prints the human readable report: a block per closed window
// and the final error report.
type TextWriter struct {
	out  io.Writer
	opts Options
}

func NewTextWriter(opts Options) (Writer, error) {
	return &TextWriter{out: opts.out(), opts: opts}, nil
}

func (w *TextWriter) WriteWindow(r *models.WindowReport) error {
	if w.opts.Verbosity < 1 {
		return nil
	}

	var b strings.Builder
	writeWindowHeader(&b, r)

	switch r.Mode {
	case models.ModeTime:
		if w.opts.ShowCurrent {
			b.WriteString("\n+ Current +\n")
			for _, a := range r.Algorithms {
				b.WriteString(countsLine(a.Name, a.Current, a.CurrentMetrics))
			}
		}
		b.WriteString("\n+ Cumulative +\n")
		for _, a := range r.Algorithms {
			b.WriteString(countsLine(a.Name, a.Cumulative, a.CumulativeMetrics))
		}
	case models.ModeWeight:
		if w.opts.ShowCurrent {
			b.WriteString("\n+ Current Errors +\n")
			for _, a := range r.Algorithms {
				b.WriteString(countsLine(a.Name, a.Current, a.CurrentMetrics))
			}
		}
		b.WriteString("\n+ Current Weighted +\n")
		for _, a := range r.Algorithms {
			if a.Weighted != nil {
				b.WriteString(weightedLine(a.Name, a.Weighted.Current, a.Weighted.CurrentMetrics))
			}
		}
		b.WriteString("\n+ Cumulative Weighted +\n")
		for _, a := range r.Algorithms {
			if a.Weighted != nil {
				b.WriteString(weightedLine(a.Name, a.Weighted.Cumulative, a.Weighted.CumulativeMetrics))
			}
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w.out, b.String())
	return err
}

func (w *TextWriter) WriteFinal(result *models.RunResult) error {
	var b strings.Builder
	b.WriteString("\n\n\n[+] Final Error Reporting [+]\n")
	b.WriteString("=============================\n")

	if result.Run.Mode == models.ModeWeight {
		b.WriteString("\nCumulative Common errors\n")
		b.WriteString("-------------------------\n")
		for _, a := range result.Algorithms {
			b.WriteString(countsLine(a.Name, a.Cumulative, a.CumulativeMetrics))
		}
		b.WriteString("\nWeighted errors\n")
		b.WriteString("----------------\n")
		for _, a := range result.Algorithms {
			if a.Weighted != nil {
				b.WriteString(weightedLine(a.Name, a.Weighted.Cumulative, a.Weighted.CumulativeMetrics))
			}
		}
	} else {
		for _, a := range result.Algorithms {
			b.WriteString(countsLine(a.Name, a.Cumulative, a.CumulativeMetrics))
		}
	}

	if len(result.Ranking) > 0 {
		fmt.Fprintf(&b, "\nRanking by %s\n", result.RankedBy)
		b.WriteString("----------------\n")
		for _, r := range result.Ranking {
			b.WriteString(rankingLine(r))
		}
	}

	fmt.Fprintf(&b, "\nProcessing lasted %d seconds\n", int(result.Duration.Seconds()))

	_, err := io.WriteString(w.out, b.String())
	return err
}

func (w *TextWriter) Close() error {
	return nil
}

func writeWindowHeader(b *strings.Builder, r *models.WindowReport) {
	b.WriteString("####################################\n")
	fmt.Fprintf(b, "Time Window Number: %d\n", r.WindowID)
	fmt.Fprintf(b, "Amount of algorithms being used: %d\n", len(r.Algorithms))
	fmt.Fprintf(b, "Amount of unique ips: %s\n", formatCounts(r.IPsByLabel))
	fmt.Fprintf(b, "Amount of labels: %s\n", formatCounts(r.LabelCounts))
	fmt.Fprintf(b, "Lines read: %d\n", r.LinesRead)
	b.WriteString("####################################\n")
}

func countsLine(name string, c models.ConfusionCounts, m models.DerivedMetrics) string {
	return fmt.Sprintf("%-*s TP=%8d, TN=%8d, FP=%8d, FN=%8d, TPR=%.3f, TNR=%.3f, FPR=%.3f, FNR=%.3f, "+
		"Precision=%7.4f, Accuracy=%5.4f, ErrorRate=%5.3f, FM1=%7.4f, FM2=%7.4f, FM05=%7.4f, "+
		"B1=%8d, B2=%8d, B3=%3d, B4=%3d, B5=%3d\n",
		nameWidth, name, c.TP, c.TN, c.FP, c.FN,
		m.TPR, m.TNR, m.FPR, m.FNR, m.Precision, m.Accuracy, m.ErrorRate, m.F1, m.F2, m.F05,
		c.B1, c.B2, c.B3, c.B4, c.B5)
}

func weightedLine(name string, c models.WeightedCounts, m models.DerivedMetrics) string {
	return fmt.Sprintf("%-*s t-TP=%.4f, t-TN=%8.4f, t-FP=%8.4f, t-FN=%.4f, t-TPR=%.3f, t-TNR=%.3f, t-FPR=%.3f, t-FNR=%.3f, "+
		"t-Precision=%7.4f, t-Accuracy=%5.4f, t-ErrorRate=%5.3f, t-FM1=%7.4f, t-FM2=%7.4f, t-FM05=%7.4f, "+
		"t-B1=%8.4f, t-B2=%8.4f, t-B3=%.4f, t-B4=%.4f, t-B5=%.4f\n",
		nameWidth, name, c.TP, c.TN, c.FP, c.FN,
		m.TPR, m.TNR, m.FPR, m.FNR, m.Precision, m.Accuracy, m.ErrorRate, m.F1, m.F2, m.F05,
		c.B1, c.B2, c.B3, c.B4, c.B5)
}

func rankingLine(r models.AlgorithmRanking) string {
	marker := ""
	switch {
	case r.Baseline:
		marker = " (baseline)"
	case r.BeatsBaseline:
		marker = " *"
	}
	return fmt.Sprintf("%3d. %-*s score=%7.4f trend=%-9s ahead=%d longest=%d%s\n",
		r.Rank, nameWidth, r.Name, r.Score, r.Trend, r.WindowsAhead, r.LongestLead, marker)
}

// formatCounts renders a label tally with keys in sorted order.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
