package training

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Checkpoint is the serialized form of a fitted linear head. Loading it
// into a freshly constructed head of the same shape reproduces identical
// logits.
type Checkpoint struct {
	Classes    []string    `json:"classes"`
	FeatureDim int         `json:"feature_dim"`
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
}

// SaveCheckpoint persists the classifier's parameters and the class name
// order to a JSON file. Callers must only invoke this at a batch boundary.
func SaveCheckpoint(path string, clf *LinearClassifier, classes []string) error {
	featureDim, numClasses := clf.Dims()
	if len(classes) != numClasses {
		return fmt.Errorf("%w: %d class names for %d-class head", ErrShapeMismatch, len(classes), numClasses)
	}

	cp := Checkpoint{
		Classes:    classes,
		FeatureDim: featureDim,
		Weights:    make([][]float64, numClasses),
		Bias:       make([]float64, numClasses),
	}
	for c := 0; c < numClasses; c++ {
		cp.Weights[c] = mat.Row(nil, c, clf.weights)
		cp.Bias[c] = clf.bias.At(0, c)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint and reconstructs the head it describes.
func LoadCheckpoint(path string) (*LinearClassifier, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}

	numClasses := len(cp.Classes)
	if len(cp.Weights) != numClasses || len(cp.Bias) != numClasses {
		return nil, nil, fmt.Errorf("%w: checkpoint has %d weight rows and %d biases for %d classes",
			ErrShapeMismatch, len(cp.Weights), len(cp.Bias), numClasses)
	}

	clf := NewLinearClassifier(cp.FeatureDim, numClasses)
	for c := 0; c < numClasses; c++ {
		if len(cp.Weights[c]) != cp.FeatureDim {
			return nil, nil, fmt.Errorf("%w: weight row %d has width %d, want %d",
				ErrShapeMismatch, c, len(cp.Weights[c]), cp.FeatureDim)
		}
		clf.weights.SetRow(c, cp.Weights[c])
		clf.bias.Set(0, c, cp.Bias[c])
	}

	return clf, cp.Classes, nil
}
