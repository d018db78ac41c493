// Package dataset provides class-directory scanning and oversampling plans
// for balancing under-represented disease classes.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"leaf-grader/internal/imageio"
)

// syntheticPrefix marks files derived by augmentation so later runs can tell
// them apart from originals.
const syntheticPrefix = "aug_"

// Sample is one labeled image in a class directory.
type Sample struct {
	Class     string
	Path      string
	Augmented bool
}

// Scan walks a directory tree where each subdirectory name is a class label
// and collects its raster samples in name order. Non-raster files are
// skipped; a class directory with no samples still appears with an empty
// slice so callers can detect it.
func Scan(root string) (map[string][]Sample, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset root: %w", err)
	}

	byClass := make(map[string][]Sample)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		class := entry.Name()

		files, err := os.ReadDir(filepath.Join(root, class))
		if err != nil {
			return nil, fmt.Errorf("failed to read class %s: %w", class, err)
		}

		samples := make([]Sample, 0, len(files))
		for _, f := range files {
			if f.IsDir() || !imageio.IsRaster(f.Name()) {
				continue
			}
			samples = append(samples, Sample{
				Class:     class,
				Path:      filepath.Join(root, class, f.Name()),
				Augmented: IsSynthetic(f.Name()),
			})
		}
		byClass[class] = samples
	}

	return byClass, nil
}

// Originals filters out augmentation-derived samples, leaving the pool that
// balancing may re-derive from.
func Originals(samples []Sample) []Sample {
	var out []Sample
	for _, s := range samples {
		if !s.Augmented {
			out = append(out, s)
		}
	}
	return out
}

// Counts returns the original sample count per class. Augmented derivatives
// are excluded so balancing never compounds across runs.
func Counts(byClass map[string][]Sample) map[string]int {
	counts := make(map[string]int, len(byClass))
	for class, samples := range byClass {
		counts[class] = len(Originals(samples))
	}
	return counts
}

// SyntheticName builds the file name for the seq-th derived copy of an
// original sample.
func SyntheticName(seq int, origPath string) string {
	return fmt.Sprintf("%s%04d_%s", syntheticPrefix, seq, filepath.Base(origPath))
}

// IsSynthetic reports whether a file name follows the derived-sample naming
// convention.
func IsSynthetic(name string) bool {
	return strings.HasPrefix(name, syntheticPrefix)
}
