package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/internal/confusion"
	"github.com/OldStager01/botnet-detectors-comparer/internal/registry"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

func header(cells ...string) []string {
	return append([]string{"#Date", "Time", "SrcAddr"}, cells...)
}

func TestBuild(t *testing.T) {
	reg, err := registry.Build(header("Label(Normal:Botnet:Background)", "Det(OK:Bad)", "Other(Norm:Bot:Bg)"), 3, models.ModeTime)
	require.NoError(t, err)

	assert.Equal(t, 3, reg.GroundTruthColumn())
	assert.Equal(t, models.GroundTruthLabels{Normal: "Normal", Botnet: "Botnet", Background: "Background"}, reg.GroundTruth())
	assert.Equal(t, []string{"Det", "Other", "AllPositive", "AllNegative", "AllBackground"}, reg.Names())
	assert.Len(t, reg.Specs(), 2)
	assert.Equal(t, 5, reg.MaxColumn())

	det, ok := reg.Spec("Det")
	require.True(t, ok)
	assert.Equal(t, 4, det.Column)
	assert.Equal(t, "OK", det.Negative)
	assert.Equal(t, "Bad", det.Positive)
	assert.Empty(t, det.Background)

	other, _ := reg.Spec("Other")
	assert.Equal(t, "Bg", other.Background)

	entry, ok := reg.Entry("Det")
	require.True(t, ok)
	assert.Nil(t, entry.Weighted)
}

func TestBuild_SkipsCellsWithoutLabels(t *testing.T) {
	reg, err := registry.Build(header("Flows", "Label(Normal:Botnet)", "Det(OK:Bad)"), 3, models.ModeFlow)
	require.NoError(t, err)

	assert.Equal(t, 4, reg.GroundTruthColumn())
	assert.Equal(t, []string{"Det", "AllPositive", "AllNegative"}, reg.Names())
}

func TestBuild_WeightModeAllocatesWeightedState(t *testing.T) {
	reg, err := registry.Build(header("Label(Normal:Botnet)", "Det(OK:Bad)"), 3, models.ModeWeight)
	require.NoError(t, err)

	require.NoError(t, reg.Each(func(e *registry.Entry) error {
		assert.NotNil(t, e.Weighted, e.Spec.Name)
		return nil
	}))
	for _, s := range reg.Snapshots() {
		assert.NotNil(t, s.Weighted)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		offset int
	}{
		{"no ground truth", header("Det(OK:Bad)"), 3},
		{"single label", header("Label(Normal:Botnet)", "Det(OK)"), 3},
		{"four labels", header("Label(Normal:Botnet)", "Det(a:b:c:d)"), 3},
		{"missing parenthesis", header("Label(Normal:Botnet)", "Det(OK:Bad"), 3},
		{"empty positive", header("Label(Normal:Botnet)", "Det(OK:)"), 3},
		{"empty name", header("Label(Normal:Botnet)", "(OK:Bad)"), 3},
		{"duplicate ground truth", header("Label(Normal:Botnet)", "label2(N:B)"), 3},
		{"duplicate algorithm", header("Label(Normal:Botnet)", "Det(OK:Bad)", "Det(A:B)"), 3},
		{"baseline name clash", header("Label(Normal:Botnet)", "AllPositive(OK:Bad)"), 3},
		{"offset past header", header("Label(Normal:Botnet)"), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Build(tt.header, tt.offset, models.ModeTime)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrMalformedInput))
		})
	}
}

func TestBaselines(t *testing.T) {
	truth := models.GroundTruthLabels{Normal: "Normal", Botnet: "Botnet", Background: "Background"}
	m := models.NewLabelMatcher(models.MatchPrefix)

	reg, err := registry.Build(header("Label(Normal:Botnet:Background)"), 3, models.ModeTime)
	require.NoError(t, err)

	tests := []struct {
		baseline string
		actual   string
		want     models.Outcome
	}{
		{models.BaselineAllPositive, "Botnet-CC", models.OutcomeTP},
		{models.BaselineAllPositive, "Normal", models.OutcomeFP},
		{models.BaselineAllPositive, "Background", models.OutcomeB2},
		{models.BaselineAllNegative, "Normal-V42", models.OutcomeTN},
		{models.BaselineAllNegative, "Botnet", models.OutcomeFN},
		{models.BaselineAllNegative, "Background", models.OutcomeB1},
		{models.BaselineAllBackground, "Normal", models.OutcomeB3},
		{models.BaselineAllBackground, "Background", models.OutcomeB5},
	}

	for _, tt := range tests {
		t.Run(tt.baseline+"/"+tt.actual, func(t *testing.T) {
			spec, ok := reg.Spec(tt.baseline)
			require.True(t, ok)
			require.True(t, spec.Baseline)

			got, err := confusion.Classify(spec, truth, m, spec.Constant, tt.actual, confusion.PathStreaming)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_ResetWindow(t *testing.T) {
	reg, err := registry.Build(header("Label(Normal:Botnet)", "Det(OK:Bad)"), 3, models.ModeTime)
	require.NoError(t, err)

	e, _ := reg.Entry("Det")
	e.Confusion.Record(models.OutcomeTP)
	reg.ResetWindow()

	assert.Equal(t, int64(0), e.Confusion.Current().TP)
	assert.Equal(t, int64(1), e.Confusion.Cumulative().TP)
}
