package training

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Batch is a fixed-size group of feature rows with integer labels in
// [0, numClasses).
type Batch struct {
	X      *mat.Dense
	Labels []int
}

// BatchSource yields batches in a fixed, reproducible order. Reset rewinds
// it for the next pass.
type BatchSource interface {
	Reset()
	Next() (Batch, bool)
}

// SliceSource serves a pre-built batch slice in order.
type SliceSource struct {
	batches []Batch
	pos     int
}

// NewSliceSource creates a source over the given batches.
func NewSliceSource(batches []Batch) *SliceSource {
	return &SliceSource{batches: batches}
}

// Reset rewinds the source to the first batch.
func (s *SliceSource) Reset() { s.pos = 0 }

// Next returns the next batch, or ok=false when the pass is done.
func (s *SliceSource) Next() (Batch, bool) {
	if s.pos >= len(s.batches) {
		return Batch{}, false
	}
	b := s.batches[s.pos]
	s.pos++
	return b, true
}

// MakeBatches groups feature vectors and labels into batches of at most
// batchSize, preserving sample order. The trailing batch may be smaller.
func MakeBatches(features [][]float64, labels []int, batchSize int) ([]Batch, error) {
	if len(features) != len(labels) {
		return nil, fmt.Errorf("%w: %d feature rows vs %d labels", ErrShapeMismatch, len(features), len(labels))
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("no samples to batch")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	dim := len(features[0])
	var batches []Batch
	for start := 0; start < len(features); start += batchSize {
		end := start + batchSize
		if end > len(features) {
			end = len(features)
		}

		n := end - start
		x := mat.NewDense(n, dim, nil)
		lab := make([]int, n)
		for i := 0; i < n; i++ {
			if len(features[start+i]) != dim {
				return nil, fmt.Errorf("%w: feature row %d has width %d, want %d",
					ErrShapeMismatch, start+i, len(features[start+i]), dim)
			}
			x.SetRow(i, features[start+i])
			lab[i] = labels[start+i]
		}
		batches = append(batches, Batch{X: x, Labels: lab})
	}

	return batches, nil
}

// Split partitions samples into training and validation sets by sending
// every holdEvery-th sample to validation. The interleaved split is
// deterministic and keeps both sets covering all classes when samples are
// grouped by class.
func Split(features [][]float64, labels []int, holdEvery int) (trainX [][]float64, trainY []int, valX [][]float64, valY []int) {
	for i := range features {
		if holdEvery > 0 && i%holdEvery == holdEvery-1 {
			valX = append(valX, features[i])
			valY = append(valY, labels[i])
		} else {
			trainX = append(trainX, features[i])
			trainY = append(trainY, labels[i])
		}
	}
	return trainX, trainY, valX, valY
}
