package confusion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OldStager01/botnet-detectors-comparer/internal/confusion"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name           string
		tp, fn, fp, tn float64
		check          func(t *testing.T, m models.DerivedMetrics)
	}{
		{
			name: "all zero is undefined everywhere",
			check: func(t *testing.T, m models.DerivedMetrics) {
				assert.Equal(t, models.UndefinedMetrics(), m)
			},
		},
		{
			name: "no positives leaves TPR undefined only",
			tn:   3, fp: 1,
			check: func(t *testing.T, m models.DerivedMetrics) {
				assert.Equal(t, models.Undefined, m.TPR)
				assert.Equal(t, models.Undefined, m.FNR)
				assert.InDelta(t, 0.75, m.TNR, 1e-9)
				assert.InDelta(t, 0.25, m.FPR, 1e-9)
				assert.InDelta(t, 0.75, m.Accuracy, 1e-9)
				assert.Equal(t, models.Undefined, m.F1)
			},
		},
		{
			name: "mixed counts",
			tp:   6, fn: 2, fp: 3, tn: 9,
			check: func(t *testing.T, m models.DerivedMetrics) {
				assert.InDelta(t, 0.75, m.TPR, 1e-9)
				assert.InDelta(t, 0.25, m.FNR, 1e-9)
				assert.InDelta(t, 0.75, m.TNR, 1e-9)
				assert.InDelta(t, 0.25, m.FPR, 1e-9)
				assert.InDelta(t, 6.0/9.0, m.Precision, 1e-9)
				assert.InDelta(t, 15.0/20.0, m.Accuracy, 1e-9)
				assert.InDelta(t, 5.0/20.0, m.ErrorRate, 1e-9)
			},
		},
		{
			name: "precision zero and recall zero gives undefined F",
			fn:   2, fp: 2,
			check: func(t *testing.T, m models.DerivedMetrics) {
				assert.Equal(t, 0.0, m.Precision)
				assert.Equal(t, 0.0, m.TPR)
				assert.Equal(t, models.Undefined, m.F1)
				assert.Equal(t, models.Undefined, m.F2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, confusion.Derive(tt.tp, tt.fn, tt.fp, tt.tn))
		})
	}
}

func TestDerive_FMeasureIdentity(t *testing.T) {
	m := confusion.Derive(7, 3, 2, 11)
	expected := 2 * m.Precision * m.TPR / (m.Precision + m.TPR)
	assert.InDelta(t, expected, m.F1, 1e-12)

	p, r := m.Precision, m.TPR
	assert.InDelta(t, 5*p*r/(4*p+r), m.F2, 1e-12)
	assert.InDelta(t, 1.25*p*r/(0.25*p+r), m.F05, 1e-12)
}

func TestFMeasure_UndefinedInputs(t *testing.T) {
	assert.Equal(t, models.Undefined, confusion.FMeasure(1, models.Undefined, 0.5))
	assert.Equal(t, models.Undefined, confusion.FMeasure(1, 0.5, models.Undefined))
	assert.InDelta(t, 0.5, confusion.FMeasure(1, 0.5, 0.5), 1e-12)
}
