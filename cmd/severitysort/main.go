// Command severitysort buckets leaf images into severity directories.
// It scans a dataset tree, scores each image's infected-pixel percentage
// with an HSV mask, and copies the image into the subdirectory of its
// severity band. Images whose percentage falls in no band are skipped.
//
// Usage: severitysort <input-dir> <output-dir>
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"leaf-grader/internal/dataset"
	"leaf-grader/internal/severity"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input-dir> <output-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSorts leaf images into one directory per severity band.\n")
		os.Exit(1)
	}

	inputDir := os.Args[1]
	outputDir := os.Args[2]

	classifier, err := severity.NewClassifier(severity.DefaultBands())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring bands: %v\n", err)
		os.Exit(1)
	}

	scorer := severity.NewScorer(severity.DefaultScoreOptions())
	router := severity.NewFSRouter(scorer.ScoreFileMat, classifier, outputDir)

	byClass, err := dataset.Scan(inputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning input: %v\n", err)
		os.Exit(1)
	}

	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	counts := make(map[string]int)
	var skippedUndefined, skippedUnreadable int

	for _, class := range classes {
		samples := byClass[class]
		fmt.Printf("Scoring class %s (%d images)\n", class, len(samples))

		for _, sample := range samples {
			label, dest, ok, err := router.ClassifyAndRoute(sample.Path)
			if err != nil {
				if errors.Is(err, severity.ErrDecode) {
					fmt.Printf("  skipping unreadable image %s\n", sample.Path)
					skippedUnreadable++
					continue
				}
				fmt.Fprintf(os.Stderr, "Error scoring %s: %v\n", sample.Path, err)
				os.Exit(1)
			}
			if !ok {
				skippedUndefined++
				continue
			}

			if err := router.Copy(sample.Path, dest); err != nil {
				fmt.Fprintf(os.Stderr, "Error copying %s: %v\n", sample.Path, err)
				os.Exit(1)
			}
			counts[label]++
		}
	}

	fmt.Println()
	for _, label := range classifier.Labels() {
		fmt.Printf("%s: %d images\n", label, counts[label])
	}
	fmt.Printf("Skipped: %d outside all bands, %d unreadable\n", skippedUndefined, skippedUnreadable)
}
