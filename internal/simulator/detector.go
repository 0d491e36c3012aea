package simulator

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/validation"
)

// DetectorSim predicts labels with a fixed detection rate and false alarm
// rate. Background flows are predicted like normal ones.
type DetectorSim struct {
	Name     string
	Negative string
	Positive string
	TPR      float64
	FPR      float64
}

func (d DetectorSim) validate() error {
	if err := validation.ValidateAlgorithmName(d.Name); err != nil {
		return err
	}
	for _, label := range []string{d.Negative, d.Positive} {
		if err := validation.ValidateLabel(label); err != nil {
			return fmt.Errorf("detector %s: %w", d.Name, err)
		}
	}
	if d.Negative == d.Positive {
		return fmt.Errorf("detector %s: negative and positive labels must differ", d.Name)
	}
	if d.TPR < 0 || d.TPR > 1 || d.FPR < 0 || d.FPR > 1 {
		return fmt.Errorf("detector %s: rates must be within [0, 1]", d.Name)
	}
	return nil
}

func (d DetectorSim) headerCell() string {
	return fmt.Sprintf("%s(%s:%s)", d.Name, d.Negative, d.Positive)
}

func (d DetectorSim) predict(rng *rand.Rand, botnet bool) string {
	rate := d.FPR
	if botnet {
		rate = d.TPR
	}
	if rng.Float64() < rate {
		return d.Positive
	}
	return d.Negative
}

// ParseDetector reads "Name:TPR:FPR", labelling predictions Normal/Botnet.
func ParseDetector(s string) (DetectorSim, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return DetectorSim{}, fmt.Errorf("detector %q: want Name:TPR:FPR", s)
	}
	tpr, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return DetectorSim{}, fmt.Errorf("detector %q: bad TPR: %w", s, err)
	}
	fpr, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return DetectorSim{}, fmt.Errorf("detector %q: bad FPR: %w", s, err)
	}
	d := DetectorSim{Name: parts[0], Negative: "Normal", Positive: "Botnet", TPR: tpr, FPR: fpr}
	return d, d.validate()
}
