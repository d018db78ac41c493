package training

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixedClassifier predicts a constant class per feature value and never
// learns; it isolates the loop's accumulation logic from the model.
type fixedClassifier struct {
	numClasses int
}

func (f *fixedClassifier) Forward(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	logits := mat.NewDense(n, f.numClasses, nil)
	for i := 0; i < n; i++ {
		pred := int(x.At(i, 0)) % f.numClasses
		logits.Set(i, pred, 10)
	}
	return logits
}

func (f *fixedClassifier) Backward(x, dLogits *mat.Dense) {}
func (f *fixedClassifier) ZeroGrad()                      {}
func (f *fixedClassifier) Params() []Param                { return nil }

type noopOptimizer struct{}

func (noopOptimizer) Step([]Param) {}

func xorBatches(t *testing.T) []Batch {
	t.Helper()
	features := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	labels := []int{0, 1, 1, 0}
	batches, err := MakeBatches(features, labels, 2)
	require.NoError(t, err)
	return batches
}

func separableBatches(t *testing.T) []Batch {
	t.Helper()
	features := [][]float64{{1, 0}, {0.9, 0.1}, {0, 1}, {0.1, 0.9}}
	labels := []int{0, 0, 1, 1}
	batches, err := MakeBatches(features, labels, 2)
	require.NoError(t, err)
	return batches
}

func TestRunDeterministic(t *testing.T) {
	run := func() []EpochMetrics {
		cfg := Config{Epochs: 5, LearningRate: 0.1, Momentum: 0.9, BatchSize: 2, NumClasses: 2}
		clf := NewLinearClassifier(2, 2)
		loop := New(cfg, clf, NewSGD(cfg.LearningRate, cfg.Momentum))

		history, err := loop.Run(context.Background(),
			NewSliceSource(separableBatches(t)), NewSliceSource(separableBatches(t)))
		require.NoError(t, err)
		return history
	}

	first := run()
	second := run()
	require.Len(t, first, 5)
	assert.Equal(t, first, second, "identical runs must produce identical metrics")
}

func TestRunLearnsSeparableData(t *testing.T) {
	cfg := Config{Epochs: 50, LearningRate: 0.5, Momentum: 0.9, BatchSize: 2, NumClasses: 2}
	clf := NewLinearClassifier(2, 2)
	loop := New(cfg, clf, NewSGD(cfg.LearningRate, cfg.Momentum))

	history, err := loop.Run(context.Background(),
		NewSliceSource(separableBatches(t)), NewSliceSource(separableBatches(t)))
	require.NoError(t, err)

	last := history[len(history)-1]
	assert.Equal(t, 1.0, last.ValAccuracy)
	assert.InDelta(t, 1.0, last.Eval.MacroF1, 1e-6)
	assert.Less(t, last.TrainLoss, history[0].TrainLoss)
	assert.False(t, last.Diverged)
}

func TestEvaluateConfusionAccumulation(t *testing.T) {
	// Features encode the fixed prediction; labels differ on some samples.
	features := [][]float64{{0}, {0}, {1}, {1}, {2}}
	labels := []int{0, 1, 1, 1, 2}
	batches, err := MakeBatches(features, labels, 2)
	require.NoError(t, err)

	cfg := Config{Epochs: 1, LearningRate: 0.1, BatchSize: 2, NumClasses: 3}
	loop := New(cfg, &fixedClassifier{numClasses: 3}, noopOptimizer{})

	history, err := loop.Run(context.Background(),
		NewSliceSource(batches), NewSliceSource(batches))
	require.NoError(t, err)

	report := history[0].Eval
	// Class 0: one hit, one false positive (pred 0, label 1).
	assert.InDelta(t, 0.5, report.Precision[0], 1e-6)
	assert.InDelta(t, 1.0, report.Recall[0], 1e-6)
	// Class 1: two hits, one miss.
	assert.InDelta(t, 1.0, report.Precision[1], 1e-6)
	assert.InDelta(t, 2.0/3.0, report.Recall[1], 1e-6)
	// Class 2: perfect.
	assert.InDelta(t, 1.0, report.F1[2], 1e-6)

	assert.InDelta(t, 0.8, history[0].ValAccuracy, 1e-9)
}

func TestRunOnEpochCallback(t *testing.T) {
	cfg := Config{Epochs: 3, LearningRate: 0.1, BatchSize: 2, NumClasses: 2}
	clf := NewLinearClassifier(2, 2)
	loop := New(cfg, clf, NewSGD(cfg.LearningRate, 0))

	var seen []int
	loop.OnEpoch = func(em EpochMetrics) { seen = append(seen, em.Epoch) }

	_, err := loop.Run(context.Background(),
		NewSliceSource(xorBatches(t)), NewSliceSource(xorBatches(t)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRunLabelOutOfRange(t *testing.T) {
	features := [][]float64{{1, 0}}
	labels := []int{5}
	batches, err := MakeBatches(features, labels, 1)
	require.NoError(t, err)

	cfg := Config{Epochs: 1, LearningRate: 0.1, BatchSize: 1, NumClasses: 2}
	loop := New(cfg, NewLinearClassifier(2, 2), NewSGD(0.1, 0))

	_, err = loop.Run(context.Background(), NewSliceSource(batches), NewSliceSource(batches))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRunInconsistentFeatureWidth(t *testing.T) {
	narrow := Batch{X: mat.NewDense(1, 2, []float64{1, 2}), Labels: []int{0}}
	wide := Batch{X: mat.NewDense(1, 3, []float64{1, 2, 3}), Labels: []int{1}}

	cfg := Config{Epochs: 1, LearningRate: 0.1, BatchSize: 1, NumClasses: 2}
	loop := New(cfg, NewLinearClassifier(2, 2), NewSGD(0.1, 0))

	_, err := loop.Run(context.Background(),
		NewSliceSource([]Batch{narrow, wide}), NewSliceSource([]Batch{narrow}))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Epochs: 10, LearningRate: 0.1, BatchSize: 2, NumClasses: 2}
	loop := New(cfg, NewLinearClassifier(2, 2), NewSGD(0.1, 0))

	history, err := loop.Run(ctx, NewSliceSource(xorBatches(t)), NewSliceSource(xorBatches(t)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, history, "a cancelled epoch emits no partial metrics")
}

func TestRunDivergenceFlagged(t *testing.T) {
	huge := math.MaxFloat64
	features := [][]float64{{huge, huge}, {-huge, -huge}}
	labels := []int{0, 1}
	batches, err := MakeBatches(features, labels, 2)
	require.NoError(t, err)

	cfg := Config{Epochs: 2, LearningRate: 1000, BatchSize: 2, NumClasses: 2}
	clf := NewLinearClassifier(2, 2)
	clf.weights.SetRow(0, []float64{1, 1})
	clf.weights.SetRow(1, []float64{-1, -1})
	loop := New(cfg, clf, NewSGD(cfg.LearningRate, 0))

	history, err := loop.Run(context.Background(), NewSliceSource(batches), NewSliceSource(batches))
	require.NoError(t, err, "divergence is a warning, not an error")
	require.NotEmpty(t, history)
	assert.True(t, history[len(history)-1].Diverged)
}
