package training

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCheckpointRoundTrip(t *testing.T) {
	clf := NewLinearClassifier(3, 2)
	clf.weights.SetRow(0, []float64{0.25, -1.5, 3})
	clf.weights.SetRow(1, []float64{-0.1, 0.9, 0})
	clf.bias.Set(0, 0, 0.4)
	clf.bias.Set(0, 1, -0.4)

	path := filepath.Join(t.TempDir(), "models", "head.json")
	classes := []string{"healthy", "rust"}
	require.NoError(t, SaveCheckpoint(path, clf, classes))

	loaded, loadedClasses, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, classes, loadedClasses)

	// The restored head must reproduce identical logits.
	x := mat.NewDense(2, 3, []float64{1, 2, 3, -1, 0.5, 2})
	want := clf.Forward(x)
	got := loaded.Forward(x)
	assert.True(t, mat.Equal(want, got), "want %v, got %v", want, got)
}

func TestSaveCheckpointClassCountMismatch(t *testing.T) {
	clf := NewLinearClassifier(3, 2)
	err := SaveCheckpoint(filepath.Join(t.TempDir(), "head.json"), clf, []string{"only-one"})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLoadCheckpointCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "head.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, _, err := LoadCheckpoint(path)
	assert.Error(t, err)
}

func TestLoadCheckpointInconsistentShapes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "head.json")
	body := `{"classes":["a","b"],"feature_dim":3,"weights":[[1,2,3]],"bias":[0,0]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, _, err := LoadCheckpoint(path)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
