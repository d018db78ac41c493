// Package metrics accumulates multi-class confusion counts and derives
// precision, recall and F1 without materializing full confusion matrices.
package metrics

// Confusion holds running per-class true-positive, false-positive and
// false-negative counts for one evaluation pass. It is owned exclusively by
// that pass and must be Reset before reuse.
type Confusion struct {
	TP []int
	FP []int
	FN []int
}

// NewConfusion creates zeroed counters for numClasses classes.
func NewConfusion(numClasses int) *Confusion {
	return &Confusion{
		TP: make([]int, numClasses),
		FP: make([]int, numClasses),
		FN: make([]int, numClasses),
	}
}

// Reset zeroes all counters.
func (c *Confusion) Reset() {
	for i := range c.TP {
		c.TP[i] = 0
		c.FP[i] = 0
		c.FN[i] = 0
	}
}

// Observe records one prediction against its true label.
func (c *Confusion) Observe(pred, label int) {
	if pred == label {
		c.TP[label]++
		return
	}
	c.FP[pred]++
	c.FN[label]++
}

// ObserveBatch records a batch of predictions against their labels.
func (c *Confusion) ObserveBatch(preds, labels []int) {
	for i := range preds {
		c.Observe(preds[i], labels[i])
	}
}

// Report derives the final metrics from the accumulated counts. Call once,
// after every batch of the pass has been observed; rates from individual
// batches are not meaningful on their own.
func (c *Confusion) Report() Report {
	return Aggregate(c.TP, c.FP, c.FN)
}
