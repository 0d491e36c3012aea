package models

// Outcome is one of the nine confusion categories.
type Outcome string

const (
	OutcomeTP Outcome = "TP"
	OutcomeTN Outcome = "TN"
	OutcomeFP Outcome = "FP"
	OutcomeFN Outcome = "FN"
	// B1 predicted negative, real background.
	OutcomeB1 Outcome = "B1"
	// B2 predicted positive, real background.
	OutcomeB2 Outcome = "B2"
	// B3 predicted background, real normal.
	OutcomeB3 Outcome = "B3"
	// B4 predicted background, real botnet. Only the per-flow path uses it.
	OutcomeB4 Outcome = "B4"
	// B5 predicted background, real background.
	OutcomeB5 Outcome = "B5"
)

func AllOutcomes() []Outcome {
	return []Outcome{
		OutcomeTP, OutcomeTN, OutcomeFP, OutcomeFN,
		OutcomeB1, OutcomeB2, OutcomeB3, OutcomeB4, OutcomeB5,
	}
}

// AffectsRates reports whether the outcome enters the derived rates.
func (o Outcome) AffectsRates() bool {
	switch o {
	case OutcomeTP, OutcomeTN, OutcomeFP, OutcomeFN:
		return true
	}
	return false
}

type ConfusionCounts struct {
	TP int64 `json:"tp" yaml:"tp"`
	TN int64 `json:"tn" yaml:"tn"`
	FP int64 `json:"fp" yaml:"fp"`
	FN int64 `json:"fn" yaml:"fn"`
	B1 int64 `json:"b1" yaml:"b1"`
	B2 int64 `json:"b2" yaml:"b2"`
	B3 int64 `json:"b3" yaml:"b3"`
	B4 int64 `json:"b4" yaml:"b4"`
	B5 int64 `json:"b5" yaml:"b5"`
}

func (c *ConfusionCounts) Inc(o Outcome) {
	switch o {
	case OutcomeTP:
		c.TP++
	case OutcomeTN:
		c.TN++
	case OutcomeFP:
		c.FP++
	case OutcomeFN:
		c.FN++
	case OutcomeB1:
		c.B1++
	case OutcomeB2:
		c.B2++
	case OutcomeB3:
		c.B3++
	case OutcomeB4:
		c.B4++
	case OutcomeB5:
		c.B5++
	}
}

func (c ConfusionCounts) Get(o Outcome) int64 {
	switch o {
	case OutcomeTP:
		return c.TP
	case OutcomeTN:
		return c.TN
	case OutcomeFP:
		return c.FP
	case OutcomeFN:
		return c.FN
	case OutcomeB1:
		return c.B1
	case OutcomeB2:
		return c.B2
	case OutcomeB3:
		return c.B3
	case OutcomeB4:
		return c.B4
	case OutcomeB5:
		return c.B5
	}
	return 0
}

func (c ConfusionCounts) Total() int64 {
	return c.TP + c.TN + c.FP + c.FN + c.B1 + c.B2 + c.B3 + c.B4 + c.B5
}

// WeightedCounts holds decayed, population-normalized counters.
type WeightedCounts struct {
	TP float64 `json:"tp" yaml:"tp"`
	TN float64 `json:"tn" yaml:"tn"`
	FP float64 `json:"fp" yaml:"fp"`
	FN float64 `json:"fn" yaml:"fn"`
	B1 float64 `json:"b1" yaml:"b1"`
	B2 float64 `json:"b2" yaml:"b2"`
	B3 float64 `json:"b3" yaml:"b3"`
	B4 float64 `json:"b4" yaml:"b4"`
	B5 float64 `json:"b5" yaml:"b5"`
}

func (w *WeightedCounts) Add(o WeightedCounts) {
	w.TP += o.TP
	w.TN += o.TN
	w.FP += o.FP
	w.FN += o.FN
	w.B1 += o.B1
	w.B2 += o.B2
	w.B3 += o.B3
	w.B4 += o.B4
	w.B5 += o.B5
}
