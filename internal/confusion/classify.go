package confusion

import (
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// Path selects how predicted-background against real-botnet is scored.
type Path int

const (
	// PathStreaming scores it as FN. Used at window close.
	PathStreaming Path = iota
	// PathPerFlow scores it as B4. Used in flow mode.
	PathPerFlow
)

func (p Path) String() string {
	if p == PathPerFlow {
		return "per-flow"
	}
	return "streaming"
}

var outcomeTable = map[models.LabelCategory]map[models.LabelCategory]models.Outcome{
	models.CategoryNegative: {
		models.CategoryNegative:   models.OutcomeTN,
		models.CategoryPositive:   models.OutcomeFN,
		models.CategoryBackground: models.OutcomeB1,
	},
	models.CategoryPositive: {
		models.CategoryNegative:   models.OutcomeFP,
		models.CategoryPositive:   models.OutcomeTP,
		models.CategoryBackground: models.OutcomeB2,
	},
	models.CategoryBackground: {
		models.CategoryNegative:   models.OutcomeB3,
		models.CategoryPositive:   models.OutcomeB4,
		models.CategoryBackground: models.OutcomeB5,
	},
}

// Outcome maps a predicted and a real category to a confusion outcome.
func Outcome(predicted, actual models.LabelCategory, path Path) (models.Outcome, bool) {
	row, ok := outcomeTable[predicted]
	if !ok {
		return "", false
	}
	o, ok := row[actual]
	if !ok {
		return "", false
	}
	if o == models.OutcomeB4 && path == PathStreaming {
		return models.OutcomeFN, true
	}
	return o, true
}

// Classify resolves both labels and returns the outcome. A label matching
// no category is an ErrInvalidLabel.
func Classify(spec models.AlgorithmSpec, truth models.GroundTruthLabels, m models.LabelMatcher, predicted, actual string, path Path) (models.Outcome, error) {
	pc := spec.Categorize(m, predicted)
	if pc == models.CategoryNone {
		return "", models.InvalidLabel(spec.Name, predicted, "predicted label matches none of "+categoriesOf(spec))
	}
	ac := truth.Categorize(m, actual)
	if ac == models.CategoryNone {
		return "", models.InvalidLabel(spec.Name, actual, "ground-truth label matches none of the file labels")
	}
	o, _ := Outcome(pc, ac, path)
	return o, nil
}

func categoriesOf(spec models.AlgorithmSpec) string {
	s := "[" + spec.Negative + " " + spec.Positive
	if spec.Background != "" {
		s += " " + spec.Background
	}
	return s + "]"
}
