package severity

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ScoreFunc computes the infection percentage for an image file.
type ScoreFunc func(path string) (float64, error)

// Router decides which severity bucket an image belongs in and where its
// copy should land. Implementations stay free of filesystem mutation so the
// classification logic is testable on its own.
type Router interface {
	ClassifyAndRoute(imagePath string) (label, destPath string, ok bool, err error)
}

// FSRouter routes images into one subdirectory per severity label under a
// fixed output root.
type FSRouter struct {
	score      ScoreFunc
	classifier *Classifier
	outDir     string
}

// NewFSRouter creates a router that scores with the given function and
// buckets with the given classifier.
func NewFSRouter(score ScoreFunc, classifier *Classifier, outDir string) *FSRouter {
	return &FSRouter{score: score, classifier: classifier, outDir: outDir}
}

// ClassifyAndRoute scores the image and returns its severity label and
// destination path. ok is false when the percentage falls in no band; such
// images must be skipped, not copied. No files are written.
func (r *FSRouter) ClassifyAndRoute(imagePath string) (string, string, bool, error) {
	pct, err := r.score(imagePath)
	if err != nil {
		return "", "", false, err
	}

	label, ok := r.classifier.Classify(pct)
	if !ok {
		return "", "", false, nil
	}

	dest := filepath.Join(r.outDir, label, filepath.Base(imagePath))
	return label, dest, true, nil
}

// Copy copies the original image bytes to the destination, creating the
// band directory as needed.
func (r *FSRouter) Copy(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create band directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
