package window

import (
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// reconciler applies the per-IP precedence rules while a window is open.
type reconciler struct {
	matcher         models.LabelMatcher
	truth           models.GroundTruthLabels
	normalQualifier string
	ccQualifier     string
}

// escalates reports whether a stored ground-truth label may be replaced by
// next. Labels only move toward a stronger classification.
func (r *reconciler) escalates(prev, next string) bool {
	pc := r.truth.Categorize(r.matcher, prev)
	nc := r.truth.Categorize(r.matcher, next)

	switch {
	case pc == models.CategoryBackground && nc == models.CategoryPositive:
		return true
	case pc == models.CategoryNegative && nc == models.CategoryPositive:
		return true
	case pc == models.CategoryBackground && nc == models.CategoryNegative:
		return models.ContainsQualifier(next, r.normalQualifier)
	case pc == models.CategoryPositive && nc == models.CategoryPositive:
		return !models.ContainsQualifier(prev, r.ccQualifier) && models.ContainsQualifier(next, r.ccQualifier)
	}
	return false
}

// observe folds one record into the window. predictions holds the label of
// every registered algorithm for this record, baselines included.
func (r *reconciler) observe(w *TimeWindow, rec *models.FlowRecord, category models.LabelCategory, specs []models.AlgorithmSpec, predictions []string) *models.LabelEscalation {
	ip := rec.SourceIP
	label := rec.GroundTruth

	w.LinesRead++
	w.Last = rec.Timestamp
	w.labelCounts[label]++

	prev, seen := w.truth[ip]
	if !seen {
		w.truth[ip] = label
		w.order = append(w.order, ip)
		w.population.Add(category, 1)
		w.ipsByLabel[label]++
		for i, spec := range specs {
			w.predicted[spec.Name][ip] = predictions[i]
		}
		return nil
	}

	var escalation *models.LabelEscalation
	if prev != label && r.escalates(prev, label) {
		w.truth[ip] = label
		w.population.Add(r.truth.Categorize(r.matcher, prev), -1)
		w.population.Add(category, 1)
		w.ipsByLabel[prev]--
		w.ipsByLabel[label]++
		w.escalations++
		escalation = &models.LabelEscalation{WindowID: w.ID, SourceIP: ip, From: prev, To: label, Line: rec.Line}
		logger.WithFields(map[string]interface{}{
			"window_id": w.ID,
			"source_ip": ip,
			"from":      prev,
			"to":        label,
		}).Debug("Ground truth escalated")
	}

	for i, spec := range specs {
		byIP := w.predicted[spec.Name]
		if !spec.IsPositive(r.matcher, byIP[ip]) && spec.IsPositive(r.matcher, predictions[i]) {
			byIP[ip] = predictions[i]
		}
	}
	return escalation
}
