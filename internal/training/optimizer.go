package training

import "gonum.org/v1/gonum/mat"

// Optimizer applies one update to a classifier's parameters from their
// accumulated gradients.
type Optimizer interface {
	Step(params []Param)
}

// SGD is stochastic gradient descent with classical momentum. Its velocity
// state is owned by the training run for the run's duration.
type SGD struct {
	LearningRate float64
	Momentum     float64

	velocity []*mat.Dense
}

// NewSGD creates an SGD optimizer.
func NewSGD(learningRate, momentum float64) *SGD {
	return &SGD{LearningRate: learningRate, Momentum: momentum}
}

// Step applies v = momentum*v - lr*grad; param += v for every parameter.
func (o *SGD) Step(params []Param) {
	if o.velocity == nil {
		o.velocity = make([]*mat.Dense, len(params))
		for i, p := range params {
			r, c := p.Value.Dims()
			o.velocity[i] = mat.NewDense(r, c, nil)
		}
	}

	for i, p := range params {
		v := o.velocity[i]
		r, c := p.Value.Dims()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				upd := o.Momentum*v.At(row, col) - o.LearningRate*p.Grad.At(row, col)
				v.Set(row, col, upd)
				p.Value.Set(row, col, p.Value.At(row, col)+upd)
			}
		}
	}
}
