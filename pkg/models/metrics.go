package models

// Undefined marks a rate whose denominator was zero.
const Undefined = -1.0

// DerivedMetrics is a pure projection of a set of confusion counts.
type DerivedMetrics struct {
	TPR       float64 `json:"tpr" yaml:"tpr"`
	TNR       float64 `json:"tnr" yaml:"tnr"`
	FPR       float64 `json:"fpr" yaml:"fpr"`
	FNR       float64 `json:"fnr" yaml:"fnr"`
	Precision float64 `json:"precision" yaml:"precision"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	ErrorRate float64 `json:"error_rate" yaml:"error_rate"`
	F1        float64 `json:"f1" yaml:"f1"`
	F2        float64 `json:"f2" yaml:"f2"`
	F05       float64 `json:"f05" yaml:"f05"`
}

func UndefinedMetrics() DerivedMetrics {
	return DerivedMetrics{
		TPR: Undefined, TNR: Undefined, FPR: Undefined, FNR: Undefined,
		Precision: Undefined, Accuracy: Undefined, ErrorRate: Undefined,
		F1: Undefined, F2: Undefined, F05: Undefined,
	}
}

// MetricNames lists the rate names accepted by Value.
func MetricNames() []string {
	return []string{"tpr", "tnr", "fpr", "fnr", "precision", "accuracy", "error_rate", "f1", "f2", "f05"}
}

// Value looks a rate up by name. Unknown names report false.
func (m DerivedMetrics) Value(name string) (float64, bool) {
	switch name {
	case "tpr":
		return m.TPR, true
	case "tnr":
		return m.TNR, true
	case "fpr":
		return m.FPR, true
	case "fnr":
		return m.FNR, true
	case "precision":
		return m.Precision, true
	case "accuracy":
		return m.Accuracy, true
	case "error_rate":
		return m.ErrorRate, true
	case "f1":
		return m.F1, true
	case "f2":
		return m.F2, true
	case "f05":
		return m.F05, true
	}
	return 0, false
}

func IsDefined(v float64) bool {
	return v != Undefined
}
