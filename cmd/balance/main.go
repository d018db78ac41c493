// Command balance oversamples under-represented classes in a dataset tree.
// For every class below the target count it derives augmented copies from
// the existing originals, cycling through them in order. Derived files use
// the aug_ prefix so reruns neither recount nor re-augment them; a derived
// file that already exists is left alone, making the command idempotent.
//
// Usage: balance <dataset-dir> <target-count>
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"leaf-grader/internal/dataset"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dataset-dir> <target-count>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDerives augmented samples until every class reaches the target count.\n")
		os.Exit(1)
	}

	root := os.Args[1]
	target, err := strconv.Atoi(os.Args[2])
	if err != nil || target <= 0 {
		fmt.Fprintf(os.Stderr, "Error: target count must be a positive integer, got %q\n", os.Args[2])
		os.Exit(1)
	}

	byClass, err := dataset.Scan(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning dataset: %v\n", err)
		os.Exit(1)
	}

	counts := dataset.Counts(byClass)
	plan, err := dataset.Plan(counts, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error planning balance: %v\n", err)
		os.Exit(1)
	}

	if len(plan) == 0 {
		fmt.Println("All classes already at or above target; nothing to do.")
		return
	}

	classes := make([]string, 0, len(plan))
	for class := range plan {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	written := 0
	for _, class := range classes {
		indices := plan[class]
		pool := dataset.Originals(byClass[class])
		fmt.Printf("Class %s: %d existing, deriving %d\n", class, counts[class], len(indices))

		for seq, srcIdx := range indices {
			src := pool[srcIdx]
			dest := filepath.Join(root, class, dataset.SyntheticName(seq, src.Path))

			if _, err := os.Stat(dest); err == nil {
				continue // derived in an earlier run
			}

			if err := dataset.AugmentFile(src.Path, dest, seq); err != nil {
				fmt.Fprintf(os.Stderr, "Error augmenting %s: %v\n", src.Path, err)
				os.Exit(1)
			}
			written++
		}
	}

	fmt.Printf("\nWrote %d derived samples\n", written)
}
