package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLinearForward(t *testing.T) {
	clf := NewLinearClassifier(2, 2)
	clf.weights.SetRow(0, []float64{1, 0})
	clf.weights.SetRow(1, []float64{0, 1})
	clf.bias.Set(0, 0, 0.5)
	clf.bias.Set(0, 1, -0.5)

	x := mat.NewDense(1, 2, []float64{3, 4})
	logits := clf.Forward(x)

	assert.InDelta(t, 3.5, logits.At(0, 0), 1e-12)
	assert.InDelta(t, 3.5, logits.At(0, 1), 1e-12)
}

func TestLinearBackwardMatchesNumericGradient(t *testing.T) {
	clf := NewLinearClassifier(3, 2)
	clf.weights.SetRow(0, []float64{0.1, -0.2, 0.3})
	clf.weights.SetRow(1, []float64{-0.4, 0.5, 0.05})

	x := mat.NewDense(2, 3, []float64{1, 2, -1, 0.5, -0.5, 2})
	labels := []int{0, 1}

	logits := clf.Forward(x)
	_, dLogits := softmaxCrossEntropy(logits, labels)
	clf.ZeroGrad()
	clf.Backward(x, dLogits)

	lossAt := func() float64 {
		loss, _ := softmaxCrossEntropy(clf.Forward(x), labels)
		return loss
	}

	const h = 1e-6
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			orig := clf.weights.At(r, c)
			clf.weights.Set(r, c, orig+h)
			plus := lossAt()
			clf.weights.Set(r, c, orig-h)
			minus := lossAt()
			clf.weights.Set(r, c, orig)

			numeric := (plus - minus) / (2 * h)
			assert.InDelta(t, numeric, clf.gradW.At(r, c), 1e-4, "gradW[%d,%d]", r, c)
		}
	}
}

func TestZeroGrad(t *testing.T) {
	clf := NewLinearClassifier(2, 2)
	x := mat.NewDense(1, 2, []float64{1, 1})
	_, dLogits := softmaxCrossEntropy(clf.Forward(x), []int{0})
	clf.Backward(x, dLogits)
	clf.ZeroGrad()

	for _, p := range clf.Params() {
		r, c := p.Grad.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				assert.Zero(t, p.Grad.At(i, j))
			}
		}
	}
}

func TestSGDStepReducesLoss(t *testing.T) {
	clf := NewLinearClassifier(2, 2)
	opt := NewSGD(0.5, 0)

	x := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	labels := []int{0, 1}

	before, _ := softmaxCrossEntropy(clf.Forward(x), labels)
	for i := 0; i < 10; i++ {
		logits := clf.Forward(x)
		_, dLogits := softmaxCrossEntropy(logits, labels)
		clf.ZeroGrad()
		clf.Backward(x, dLogits)
		opt.Step(clf.Params())
	}
	after, _ := softmaxCrossEntropy(clf.Forward(x), labels)

	assert.Less(t, after, before)
}

func TestSoftmaxCrossEntropyUniform(t *testing.T) {
	// Zero logits: uniform distribution, loss = ln(numClasses).
	logits := mat.NewDense(1, 4, nil)
	loss, dLogits := softmaxCrossEntropy(logits, []int{2})

	assert.InDelta(t, 1.3862943611, loss, 1e-9)
	assert.InDelta(t, 0.25, dLogits.At(0, 0), 1e-9)
	assert.InDelta(t, -0.75, dLogits.At(0, 2), 1e-9)
}

func TestArgmaxRows(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{0.1, 0.9, 0.2, 2, 1, -3})
	assert.Equal(t, []int{1, 0}, argmaxRows(m))
}

func TestMakeBatches(t *testing.T) {
	features := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}}
	labels := []int{0, 1, 0, 1, 0}

	batches, err := MakeBatches(features, labels, 2)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	rows, _ := batches[2].X.Dims()
	assert.Equal(t, 1, rows, "trailing batch keeps the remainder")
	assert.Equal(t, []int{0}, batches[2].Labels)
}

func TestMakeBatchesRaggedFeatures(t *testing.T) {
	_, err := MakeBatches([][]float64{{1, 2}, {3}}, []int{0, 1}, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSplitInterleaved(t *testing.T) {
	features := make([][]float64, 10)
	labels := make([]int, 10)
	for i := range features {
		features[i] = []float64{float64(i)}
		labels[i] = i % 2
	}

	trainX, trainY, valX, valY := Split(features, labels, 5)
	assert.Len(t, trainX, 8)
	assert.Len(t, valX, 2)
	assert.Equal(t, []float64{4}, valX[0])
	assert.Equal(t, []float64{9}, valX[1])
	assert.Len(t, trainY, 8)
	assert.Len(t, valY, 2)
}
