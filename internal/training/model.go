// Package training fits a replaceable linear classification head over
// features from a frozen backbone, and evaluates it with per-class
// confusion statistics.
package training

import "gonum.org/v1/gonum/mat"

// Param pairs a parameter tensor with its accumulated gradient.
type Param struct {
	Value *mat.Dense
	Grad  *mat.Dense
}

// Classifier is a differentiable multi-class model over feature vectors.
// Forward maps a batch (rows are samples) to per-class logits; Backward
// accumulates parameter gradients from the loss gradient at the logits.
type Classifier interface {
	Forward(x *mat.Dense) *mat.Dense
	Backward(x, dLogits *mat.Dense)
	ZeroGrad()
	Params() []Param
}

// LinearClassifier is a single linear layer: the trainable replacement head
// on top of a frozen feature extractor.
type LinearClassifier struct {
	weights *mat.Dense // numClasses x featureDim
	bias    *mat.Dense // 1 x numClasses

	gradW *mat.Dense
	gradB *mat.Dense
}

// NewLinearClassifier creates a zero-initialized head. Zero init is
// deterministic and sufficient for a convex softmax objective.
func NewLinearClassifier(featureDim, numClasses int) *LinearClassifier {
	return &LinearClassifier{
		weights: mat.NewDense(numClasses, featureDim, nil),
		bias:    mat.NewDense(1, numClasses, nil),
		gradW:   mat.NewDense(numClasses, featureDim, nil),
		gradB:   mat.NewDense(1, numClasses, nil),
	}
}

// Dims returns the head's feature dimension and class count.
func (c *LinearClassifier) Dims() (featureDim, numClasses int) {
	numClasses, featureDim = c.weights.Dims()
	return featureDim, numClasses
}

// Forward computes logits = x * W^T + b for a batch of feature rows.
func (c *LinearClassifier) Forward(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	_, numClasses := c.bias.Dims()

	logits := mat.NewDense(n, numClasses, nil)
	logits.Mul(x, c.weights.T())
	for i := 0; i < n; i++ {
		for j := 0; j < numClasses; j++ {
			logits.Set(i, j, logits.At(i, j)+c.bias.At(0, j))
		}
	}
	return logits
}

// Backward accumulates gradients given the loss gradient at the logits.
func (c *LinearClassifier) Backward(x, dLogits *mat.Dense) {
	numClasses, featureDim := c.weights.Dims()

	dW := mat.NewDense(numClasses, featureDim, nil)
	dW.Mul(dLogits.T(), x)
	c.gradW.Add(c.gradW, dW)

	n, _ := dLogits.Dims()
	for j := 0; j < numClasses; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += dLogits.At(i, j)
		}
		c.gradB.Set(0, j, c.gradB.At(0, j)+sum)
	}
}

// ZeroGrad clears the accumulated gradients for the next batch.
func (c *LinearClassifier) ZeroGrad() {
	c.gradW.Zero()
	c.gradB.Zero()
}

// Params exposes the parameter/gradient pairs for an optimizer.
func (c *LinearClassifier) Params() []Param {
	return []Param{
		{Value: c.weights, Grad: c.gradW},
		{Value: c.bias, Grad: c.gradB},
	}
}
