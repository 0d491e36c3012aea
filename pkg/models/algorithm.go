package models

// Baseline algorithm names synthesized by the registry.
const (
	BaselineAllPositive   = "AllPositive"
	BaselineAllNegative   = "AllNegative"
	BaselineAllBackground = "AllBackground"
)

// AlgorithmSpec describes one scored algorithm. Real algorithms read their
// prediction from Column; baselines predict Constant for every record.
type AlgorithmSpec struct {
	Name       string `json:"name"`
	Column     int    `json:"column"`
	Negative   string `json:"negative_label"`
	Positive   string `json:"positive_label"`
	Background string `json:"background_label,omitempty"`
	Baseline   bool   `json:"baseline"`
	Constant   string `json:"constant,omitempty"`
}

// Categorize resolves a predicted value, checking negative, positive and
// background in that order.
func (s AlgorithmSpec) Categorize(m LabelMatcher, value string) LabelCategory {
	switch {
	case m.Matches(s.Negative, value):
		return CategoryNegative
	case m.Matches(s.Positive, value):
		return CategoryPositive
	case m.Matches(s.Background, value):
		return CategoryBackground
	default:
		return CategoryNone
	}
}

func (s AlgorithmSpec) IsPositive(m LabelMatcher, value string) bool {
	return m.Matches(s.Positive, value)
}
