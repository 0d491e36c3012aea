package window

import (
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// TimeWindow holds the per-IP state of one open window. Accumulators are
// not part of it; algorithms are referenced by name only.
type TimeWindow struct {
	ID        int
	Start     time.Time
	Last      time.Time
	LinesRead int

	truth     map[string]string
	predicted map[string]map[string]string
	order     []string

	population  models.Population
	ipsByLabel  map[string]int
	labelCounts map[string]int
	escalations int
}

func newTimeWindow(id int, start time.Time, algorithms []string) *TimeWindow {
	w := &TimeWindow{
		ID:          id,
		Start:       start,
		Last:        start,
		truth:       make(map[string]string),
		predicted:   make(map[string]map[string]string, len(algorithms)),
		ipsByLabel:  make(map[string]int),
		labelCounts: make(map[string]int),
	}
	for _, name := range algorithms {
		w.predicted[name] = make(map[string]string)
	}
	return w
}

// Contains reports whether t falls inside a window of the given width.
func (w *TimeWindow) Contains(t time.Time, width time.Duration) bool {
	return t.Sub(w.Start) < width
}

func (w *TimeWindow) UniqueIPs() int {
	return len(w.order)
}

func (w *TimeWindow) Empty() bool {
	return len(w.order) == 0
}

func (w *TimeWindow) Population() models.Population {
	return w.population
}

// GroundTruth returns the resolved ground-truth label of an IP.
func (w *TimeWindow) GroundTruth(ip string) (string, bool) {
	label, ok := w.truth[ip]
	return label, ok
}

// Predicted returns the resolved predicted label of an algorithm for an IP.
func (w *TimeWindow) Predicted(algorithm, ip string) (string, bool) {
	byIP, ok := w.predicted[algorithm]
	if !ok {
		return "", false
	}
	label, ok := byIP[ip]
	return label, ok
}

// IPs returns source IPs in first-seen order.
func (w *TimeWindow) IPs() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

func (w *TimeWindow) Escalations() int {
	return w.escalations
}

func (w *TimeWindow) clear() {
	w.truth = nil
	w.predicted = nil
	w.order = nil
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}
