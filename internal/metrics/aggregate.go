package metrics

import "gonum.org/v1/gonum/floats"

// eps guards every division so a class with zero predicted or actual
// positives yields scores near zero instead of NaN or a fault.
const eps = 1e-8

// Report holds per-class and macro-averaged classification metrics.
// Macro averages are unweighted arithmetic means across classes; support
// weighting is deliberately not applied.
type Report struct {
	Precision []float64 `json:"precision"`
	Recall    []float64 `json:"recall"`
	F1        []float64 `json:"f1"`

	MacroPrecision float64 `json:"macro_precision"`
	MacroRecall    float64 `json:"macro_recall"`
	MacroF1        float64 `json:"macro_f1"`
}

// Aggregate turns per-class TP/FP/FN vectors into per-class and macro
// precision, recall and F1. The three vectors must share one length.
func Aggregate(tp, fp, fn []int) Report {
	n := len(tp)
	r := Report{
		Precision: make([]float64, n),
		Recall:    make([]float64, n),
		F1:        make([]float64, n),
	}

	for c := 0; c < n; c++ {
		p := float64(tp[c]) / (float64(tp[c]+fp[c]) + eps)
		rc := float64(tp[c]) / (float64(tp[c]+fn[c]) + eps)
		r.Precision[c] = p
		r.Recall[c] = rc
		r.F1[c] = 2 * p * rc / (p + rc + eps)
	}

	if n > 0 {
		r.MacroPrecision = floats.Sum(r.Precision) / float64(n)
		r.MacroRecall = floats.Sum(r.Recall) / float64(n)
		r.MacroF1 = floats.Sum(r.F1) / float64(n)
	}

	return r
}
