package confusion

import "github.com/OldStager01/botnet-detectors-comparer/pkg/models"

// Derive computes the rate set from TP (a), FN (b), FP (c) and TN (d).
// A zero denominator yields models.Undefined for that rate only.
func Derive(tp, fn, fp, tn float64) models.DerivedMetrics {
	m := models.DerivedMetrics{
		TPR:       ratio(tp, tp+fn),
		TNR:       ratio(tn, tn+fp),
		FPR:       ratio(fp, tn+fp),
		FNR:       ratio(fn, tp+fn),
		Precision: ratio(tp, tp+fp),
		Accuracy:  ratio(tp+tn, tp+tn+fp+fn),
		ErrorRate: ratio(fn+fp, tp+tn+fp+fn),
	}
	m.F1 = FMeasure(1, m.Precision, m.TPR)
	m.F2 = FMeasure(2, m.Precision, m.TPR)
	m.F05 = FMeasure(0.5, m.Precision, m.TPR)
	return m
}

func DeriveCounts(c models.ConfusionCounts) models.DerivedMetrics {
	return Derive(float64(c.TP), float64(c.FN), float64(c.FP), float64(c.TN))
}

func DeriveWeighted(w models.WeightedCounts) models.DerivedMetrics {
	return Derive(w.TP, w.FN, w.FP, w.TN)
}

// FMeasure is undefined when either input is undefined.
func FMeasure(beta, precision, tpr float64) float64 {
	if !models.IsDefined(precision) || !models.IsDefined(tpr) {
		return models.Undefined
	}
	b2 := beta * beta
	return ratio((b2+1)*precision*tpr, b2*precision+tpr)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return models.Undefined
	}
	return num / den
}
