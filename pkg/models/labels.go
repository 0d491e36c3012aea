package models

import "strings"

// LabelCategory is the class a label string resolves to. Ground-truth
// labels use the same three categories: normal is negative, botnet is
// positive.
type LabelCategory string

const (
	CategoryNegative   LabelCategory = "negative"
	CategoryPositive   LabelCategory = "positive"
	CategoryBackground LabelCategory = "background"
	CategoryNone       LabelCategory = ""
)

func (c LabelCategory) String() string {
	if c == CategoryNone {
		return "none"
	}
	return string(c)
}

// TruthName returns the ground-truth name of the category.
func (c LabelCategory) TruthName() string {
	switch c {
	case CategoryNegative:
		return "normal"
	case CategoryPositive:
		return "botnet"
	case CategoryBackground:
		return "background"
	default:
		return "none"
	}
}

type MatchStrategy string

const (
	MatchPrefix   MatchStrategy = "prefix"
	MatchContains MatchStrategy = "contains"
)

func (s MatchStrategy) IsValid() bool {
	return s == MatchPrefix || s == MatchContains
}

// LabelMatcher decides whether a label value belongs to a category string.
// Containment is the default, so "From-Botnet-V42-UDP" is a Botnet label. A
// predicted value of "Botnet6" matches the category "Botnet" under both
// strategies. An empty category never matches.
type LabelMatcher struct {
	Strategy MatchStrategy
}

func NewLabelMatcher(strategy MatchStrategy) LabelMatcher {
	if !strategy.IsValid() {
		strategy = MatchContains
	}
	return LabelMatcher{Strategy: strategy}
}

func (m LabelMatcher) Matches(category, value string) bool {
	if category == "" {
		return false
	}
	if m.Strategy == MatchPrefix {
		return strings.HasPrefix(value, category)
	}
	return strings.Contains(value, category)
}

// GroundTruthLabels is the file-global label triple declared by the
// ground-truth header column.
type GroundTruthLabels struct {
	Normal     string `json:"normal"`
	Botnet     string `json:"botnet"`
	Background string `json:"background,omitempty"`
}

func (g GroundTruthLabels) HasBackground() bool {
	return g.Background != ""
}

// Categorize resolves a ground-truth value, checking normal, botnet and
// background in that order.
func (g GroundTruthLabels) Categorize(m LabelMatcher, value string) LabelCategory {
	switch {
	case m.Matches(g.Normal, value):
		return CategoryNegative
	case m.Matches(g.Botnet, value):
		return CategoryPositive
	case m.Matches(g.Background, value):
		return CategoryBackground
	default:
		return CategoryNone
	}
}

// ContainsQualifier reports a case-insensitive qualifier match such as "CC"
// or "From" inside a label.
func ContainsQualifier(label, qualifier string) bool {
	if qualifier == "" {
		return false
	}
	return strings.Contains(strings.ToLower(label), strings.ToLower(qualifier))
}
