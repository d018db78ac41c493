package training

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"leaf-grader/internal/metrics"
)

// ErrShapeMismatch indicates batch dimensions inconsistent with the
// configured model. It signals a misconfiguration and aborts the run.
var ErrShapeMismatch = errors.New("batch shape mismatch")

// Config holds the explicit state of one training run. There is no ambient
// configuration; everything the loop needs is passed in here.
type Config struct {
	Epochs       int
	LearningRate float64
	Momentum     float64
	BatchSize    int
	NumClasses   int
}

// DefaultConfig returns a reasonable starting configuration for fitting a
// linear head.
func DefaultConfig(numClasses int) Config {
	return Config{
		Epochs:       20,
		LearningRate: 0.05,
		Momentum:     0.9,
		BatchSize:    32,
		NumClasses:   numClasses,
	}
}

// EpochMetrics is the structured record emitted once per epoch. It is
// immutable after emission; callers and tests assert on its fields directly.
type EpochMetrics struct {
	Epoch         int     `json:"epoch"`
	TrainLoss     float64 `json:"train_loss"`
	TrainAccuracy float64 `json:"train_accuracy"`
	ValLoss       float64 `json:"val_loss"`
	ValAccuracy   float64 `json:"val_accuracy"`

	Eval metrics.Report `json:"eval"`

	// Diverged is set when a loss value became non-finite during the
	// epoch. The run continues; the caller decides whether to abort.
	Diverged bool `json:"diverged,omitempty"`
}

// Loop drives gradient-based fitting of a classifier over batched feature
// data, one training pass and one evaluation pass per epoch.
type Loop struct {
	cfg Config
	clf Classifier
	opt Optimizer

	// OnEpoch, when set, observes each epoch's metrics as they are
	// emitted, so a caller can implement early stopping externally by
	// cancelling the context.
	OnEpoch func(EpochMetrics)

	featureDim int
}

// New creates a training loop for the given classifier and optimizer. Both
// are exclusively owned by the loop for the duration of a run.
func New(cfg Config, clf Classifier, opt Optimizer) *Loop {
	return &Loop{cfg: cfg, clf: clf, opt: opt}
}

// Run executes the configured number of epochs. Each epoch trains over all
// training batches, then evaluates over all validation batches. Batches are
// processed strictly sequentially; cancellation is honored between batches
// only, so parameters are never left mid-update.
func (l *Loop) Run(ctx context.Context, train, val BatchSource) ([]EpochMetrics, error) {
	history := make([]EpochMetrics, 0, l.cfg.Epochs)

	for epoch := 1; epoch <= l.cfg.Epochs; epoch++ {
		trainLoss, trainAcc, trainDiverged, err := l.trainEpoch(ctx, train)
		if err != nil {
			return history, err
		}

		evalLoss, evalAcc, report, evalDiverged, err := l.evaluate(ctx, val)
		if err != nil {
			return history, err
		}

		em := EpochMetrics{
			Epoch:         epoch,
			TrainLoss:     trainLoss,
			TrainAccuracy: trainAcc,
			ValLoss:       evalLoss,
			ValAccuracy:   evalAcc,
			Eval:          report,
			Diverged:      trainDiverged || evalDiverged,
		}
		history = append(history, em)

		if l.OnEpoch != nil {
			l.OnEpoch(em)
		}
	}

	return history, nil
}

// trainEpoch runs one pass over the training batches, updating parameters
// after every batch.
func (l *Loop) trainEpoch(ctx context.Context, src BatchSource) (loss, accuracy float64, diverged bool, err error) {
	src.Reset()

	var totalLoss float64
	var correct, total, numBatches int

	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, false, err
		}

		batch, ok := src.Next()
		if !ok {
			break
		}
		if err := l.checkBatch(batch); err != nil {
			return 0, 0, false, err
		}

		logits := l.clf.Forward(batch.X)
		if err := l.checkLogits(logits, batch); err != nil {
			return 0, 0, false, err
		}

		batchLoss, dLogits := softmaxCrossEntropy(logits, batch.Labels)
		if !isFinite(batchLoss) {
			diverged = true
		}

		l.clf.ZeroGrad()
		l.clf.Backward(batch.X, dLogits)
		l.opt.Step(l.clf.Params())

		totalLoss += batchLoss
		correct += countCorrect(logits, batch.Labels)
		total += len(batch.Labels)
		numBatches++
	}

	if numBatches == 0 {
		return 0, 0, false, fmt.Errorf("training pass produced no batches")
	}
	return totalLoss / float64(numBatches), float64(correct) / float64(total), diverged, nil
}

// evaluate runs one forward-only pass, accumulating per-class TP/FP/FN
// across all batches before deriving rates once at the end.
func (l *Loop) evaluate(ctx context.Context, src BatchSource) (loss, accuracy float64, report metrics.Report, diverged bool, err error) {
	src.Reset()

	conf := metrics.NewConfusion(l.cfg.NumClasses)
	conf.Reset()

	var totalLoss float64
	var correct, total, numBatches int

	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, metrics.Report{}, false, err
		}

		batch, ok := src.Next()
		if !ok {
			break
		}
		if err := l.checkBatch(batch); err != nil {
			return 0, 0, metrics.Report{}, false, err
		}

		logits := l.clf.Forward(batch.X)
		if err := l.checkLogits(logits, batch); err != nil {
			return 0, 0, metrics.Report{}, false, err
		}

		batchLoss, _ := softmaxCrossEntropy(logits, batch.Labels)
		if !isFinite(batchLoss) {
			diverged = true
		}

		preds := argmaxRows(logits)
		conf.ObserveBatch(preds, batch.Labels)

		totalLoss += batchLoss
		correct += countCorrect(logits, batch.Labels)
		total += len(batch.Labels)
		numBatches++
	}

	if numBatches == 0 {
		return 0, 0, metrics.Report{}, false, fmt.Errorf("evaluation pass produced no batches")
	}
	return totalLoss / float64(numBatches), float64(correct) / float64(total), conf.Report(), diverged, nil
}

func (l *Loop) checkBatch(b Batch) error {
	rows, cols := b.X.Dims()
	if rows != len(b.Labels) {
		return fmt.Errorf("%w: %d feature rows vs %d labels", ErrShapeMismatch, rows, len(b.Labels))
	}
	if l.featureDim == 0 {
		l.featureDim = cols
	} else if cols != l.featureDim {
		return fmt.Errorf("%w: feature width %d, want %d", ErrShapeMismatch, cols, l.featureDim)
	}
	for _, label := range b.Labels {
		if label < 0 || label >= l.cfg.NumClasses {
			return fmt.Errorf("%w: label %d outside [0, %d)", ErrShapeMismatch, label, l.cfg.NumClasses)
		}
	}
	return nil
}

func (l *Loop) checkLogits(logits *mat.Dense, b Batch) error {
	rows, cols := logits.Dims()
	if rows != len(b.Labels) || cols != l.cfg.NumClasses {
		return fmt.Errorf("%w: logits %dx%d, want %dx%d", ErrShapeMismatch, rows, cols, len(b.Labels), l.cfg.NumClasses)
	}
	return nil
}

// softmaxCrossEntropy computes the mean cross-entropy loss over a batch and
// the gradient of that loss at the logits.
func softmaxCrossEntropy(logits *mat.Dense, labels []int) (float64, *mat.Dense) {
	n, numClasses := logits.Dims()
	dLogits := mat.NewDense(n, numClasses, nil)

	var totalLoss float64
	for i := 0; i < n; i++ {
		// Shift by the row max for numerical stability.
		maxLogit := logits.At(i, 0)
		for j := 1; j < numClasses; j++ {
			if logits.At(i, j) > maxLogit {
				maxLogit = logits.At(i, j)
			}
		}

		var sumExp float64
		for j := 0; j < numClasses; j++ {
			sumExp += math.Exp(logits.At(i, j) - maxLogit)
		}

		for j := 0; j < numClasses; j++ {
			p := math.Exp(logits.At(i, j)-maxLogit) / sumExp
			grad := p
			if j == labels[i] {
				totalLoss += -math.Log(math.Max(p, 1e-300))
				grad -= 1
			}
			dLogits.Set(i, j, grad/float64(n))
		}
	}

	return totalLoss / float64(n), dLogits
}

// argmaxRows returns the index of the largest value in each row.
func argmaxRows(m *mat.Dense) []int {
	rows, cols := m.Dims()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		best := 0
		bestVal := m.At(i, 0)
		for j := 1; j < cols; j++ {
			if m.At(i, j) > bestVal {
				bestVal = m.At(i, j)
				best = j
			}
		}
		out[i] = best
	}
	return out
}

func countCorrect(logits *mat.Dense, labels []int) int {
	preds := argmaxRows(logits)
	correct := 0
	for i, p := range preds {
		if p == labels[i] {
			correct++
		}
	}
	return correct
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
