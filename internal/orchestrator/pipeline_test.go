package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

func TestCheckAccounting(t *testing.T) {
	tests := []struct {
		name    string
		read    int
		labels  map[string]int
		scored  int
		wantErr bool
	}{
		{"empty input", 0, map[string]int{}, 0, false},
		{"consistent", 4, map[string]int{"Normal": 2, "Botnet-V1": 2}, 4, false},
		{"ctu labels", 3, map[string]int{"From-Normal-V42-Grill": 1, "From-Botnet-V42-UDP-DNS": 1, "Background-UDP": 1}, 3, false},
		{"label tally short", 4, map[string]int{"Normal": 3}, 4, true},
		{"label tally over", 2, map[string]int{"Normal": 2, "Botnet": 1}, 2, true},
		{"flows not scored", 4, map[string]int{"Normal": 4}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkAccounting(tt.read, tt.labels, tt.scored)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrMalformedInput)
			assert.Contains(t, err.Error(), "flows")
		})
	}
}
