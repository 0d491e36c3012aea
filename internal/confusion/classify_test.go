package confusion_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/internal/confusion"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

var (
	truth = models.GroundTruthLabels{Normal: "Normal", Botnet: "Botnet", Background: "Background"}
	det   = models.AlgorithmSpec{Name: "Det", Column: 13, Negative: "OK", Positive: "Bad", Background: "Unknown"}
)

func TestClassify(t *testing.T) {
	matcher := models.NewLabelMatcher(models.MatchPrefix)

	tests := []struct {
		name      string
		predicted string
		actual    string
		path      confusion.Path
		expected  models.Outcome
	}{
		{"negative vs normal", "OK", "Normal", confusion.PathStreaming, models.OutcomeTN},
		{"negative vs botnet", "OK", "Botnet", confusion.PathStreaming, models.OutcomeFN},
		{"negative vs background", "OK", "Background", confusion.PathStreaming, models.OutcomeB1},
		{"positive vs normal", "Bad", "Normal", confusion.PathStreaming, models.OutcomeFP},
		{"positive vs botnet", "Bad", "Botnet", confusion.PathStreaming, models.OutcomeTP},
		{"positive with suffix", "Bad6", "Botnet-CC", confusion.PathStreaming, models.OutcomeTP},
		{"positive vs background", "Bad", "Background", confusion.PathStreaming, models.OutcomeB2},
		{"background vs normal", "Unknown", "Normal", confusion.PathStreaming, models.OutcomeB3},
		{"background vs botnet streaming", "Unknown", "Botnet", confusion.PathStreaming, models.OutcomeFN},
		{"background vs botnet per flow", "Unknown", "Botnet", confusion.PathPerFlow, models.OutcomeB4},
		{"background vs background", "Unknown", "Background", confusion.PathPerFlow, models.OutcomeB5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := confusion.Classify(det, truth, matcher, tt.predicted, tt.actual, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, o)
		})
	}
}

func TestClassify_Contains(t *testing.T) {
	matcher := models.NewLabelMatcher(models.MatchContains)
	bclus := models.AlgorithmSpec{Name: "Bclus", Column: 14, Negative: "Normal", Positive: "Botnet", Background: "Background"}

	tests := []struct {
		name      string
		predicted string
		actual    string
		path      confusion.Path
		expected  models.Outcome
	}{
		{"suffixed positive vs ctu botnet", "Botnet6", "From-Botnet-V42", confusion.PathStreaming, models.OutcomeTP},
		{"positive vs ctu cc botnet", "Botnet", "From-Botnet-V42-TCP-CC", confusion.PathStreaming, models.OutcomeTP},
		{"negative vs ctu normal", "Normal", "From-Normal-V42-Grill", confusion.PathStreaming, models.OutcomeTN},
		{"negative vs ctu botnet", "Normal", "From-Botnet-V42-UDP-DNS", confusion.PathStreaming, models.OutcomeFN},
		{"positive vs ctu normal", "Botnet6", "From-Normal-V42-Grill", confusion.PathStreaming, models.OutcomeFP},
		{"positive vs ctu background", "Botnet", "Background-Established-cmpgw-CVUT", confusion.PathStreaming, models.OutcomeB2},
		{"background vs ctu botnet per flow", "Background", "From-Botnet-V42-UDP", confusion.PathPerFlow, models.OutcomeB4},
		{"background vs ctu botnet streaming", "Background", "From-Botnet-V42-UDP", confusion.PathStreaming, models.OutcomeFN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := confusion.Classify(bclus, truth, matcher, tt.predicted, tt.actual, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, o)
		})
	}

	_, err := confusion.Classify(bclus, truth, models.NewLabelMatcher(models.MatchPrefix), "Botnet6", "From-Botnet-V42", confusion.PathStreaming)
	assert.ErrorIs(t, err, models.ErrInvalidLabel)
}

func TestClassify_InvalidLabels(t *testing.T) {
	matcher := models.NewLabelMatcher(models.MatchPrefix)

	_, err := confusion.Classify(det, truth, matcher, "Maybe", "Normal", confusion.PathStreaming)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidLabel))
	assert.Contains(t, err.Error(), "Det")
	assert.Contains(t, err.Error(), "Maybe")

	_, err = confusion.Classify(det, truth, matcher, "OK", "Other", confusion.PathStreaming)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidLabel))
}

func TestAccumulator(t *testing.T) {
	acc := confusion.NewAccumulator("Det")
	assert.Equal(t, models.UndefinedMetrics(), acc.CumulativeMetrics())

	acc.Record(models.OutcomeTP)
	acc.Record(models.OutcomeFN)
	acc.Record(models.OutcomeB2)

	assert.Equal(t, int64(1), acc.Cumulative().TP)
	assert.Equal(t, int64(3), acc.Current().Total())
	assert.InDelta(t, 0.5, acc.CurrentMetrics().TPR, 1e-9)

	acc.ResetWindow()
	assert.Equal(t, int64(0), acc.Current().Total())
	assert.Equal(t, int64(3), acc.Cumulative().Total())
	assert.Equal(t, models.Undefined, acc.CurrentMetrics().TPR)
	assert.InDelta(t, 0.5, acc.CumulativeMetrics().TPR, 1e-9)

	acc.Record(models.OutcomeTP)
	assert.InDelta(t, 1.0, acc.CurrentMetrics().TPR, 1e-9)
	assert.InDelta(t, 2.0/3.0, acc.CumulativeMetrics().TPR, 1e-9)
}
