package analyzer

import (
	"sync"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// LeadTracker counts, per algorithm, the windows in which its current
// score beat every baseline, and the longest run of such windows.
type LeadTracker struct {
	ahead   map[string]int
	streak  map[string]int
	longest map[string]int
	mu      sync.RWMutex
}

func NewLeadTracker() *LeadTracker {
	return &LeadTracker{
		ahead:   make(map[string]int),
		streak:  make(map[string]int),
		longest: make(map[string]int),
	}
}

func (t *LeadTracker) Update(algorithms []models.AlgorithmSnapshot, metric string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	best := models.Undefined
	for _, s := range algorithms {
		if !s.Baseline {
			continue
		}
		if v, _ := s.CurrentMetrics.Value(metric); better(metric, v, best) {
			best = v
		}
	}

	for _, s := range algorithms {
		if s.Baseline {
			continue
		}
		v, _ := s.CurrentMetrics.Value(metric)
		if better(metric, v, best) {
			t.ahead[s.Name]++
			t.streak[s.Name]++
			if t.streak[s.Name] > t.longest[s.Name] {
				t.longest[s.Name] = t.streak[s.Name]
			}
		} else {
			t.streak[s.Name] = 0
		}
	}
}

func (t *LeadTracker) Stats(algorithm string) (ahead, longest int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ahead[algorithm], t.longest[algorithm]
}

// Streak is the current run of leading windows.
func (t *LeadTracker) Streak(algorithm string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.streak[algorithm]
}

func (t *LeadTracker) Reset(algorithm string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.ahead, algorithm)
	delete(t.streak, algorithm)
	delete(t.longest, algorithm)
}
