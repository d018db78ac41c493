// Command train fits a linear classification head over features from a
// frozen ONNX backbone and evaluates it with per-class precision, recall
// and F1. It writes the fitted head, per-epoch metrics JSON, and training
// curves into the output directory.
//
// Usage: train <dataset-dir> <backbone.onnx> <output-dir> [epochs] [learning-rate]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"

	"leaf-grader/internal/dataset"
	"leaf-grader/internal/imageio"
	"leaf-grader/internal/training"
)

const (
	backboneInputSize = 224
	backboneFeatures  = 512
	validationHold    = 5 // every 5th sample held out
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dataset-dir> <backbone.onnx> <output-dir> [epochs] [learning-rate]\n", os.Args[0])
		os.Exit(1)
	}

	root := os.Args[1]
	backbonePath := os.Args[2]
	outDir := os.Args[3]

	classes, features, labels, err := extractDataset(root, backbonePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing dataset: %v\n", err)
		os.Exit(1)
	}

	cfg := training.DefaultConfig(len(classes))
	if len(os.Args) >= 5 {
		if cfg.Epochs, err = strconv.Atoi(os.Args[4]); err != nil || cfg.Epochs <= 0 {
			fmt.Fprintf(os.Stderr, "Error: epochs must be a positive integer, got %q\n", os.Args[4])
			os.Exit(1)
		}
	}
	if len(os.Args) >= 6 {
		if cfg.LearningRate, err = strconv.ParseFloat(os.Args[5], 64); err != nil || cfg.LearningRate <= 0 {
			fmt.Fprintf(os.Stderr, "Error: learning rate must be positive, got %q\n", os.Args[5])
			os.Exit(1)
		}
	}

	trainX, trainY, valX, valY := training.Split(features, labels, validationHold)
	fmt.Printf("Dataset: %d classes, %d training samples, %d validation samples\n",
		len(classes), len(trainY), len(valY))

	trainBatches, err := training.MakeBatches(trainX, trainY, cfg.BatchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error batching training data: %v\n", err)
		os.Exit(1)
	}
	valBatches, err := training.MakeBatches(valX, valY, cfg.BatchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error batching validation data: %v\n", err)
		os.Exit(1)
	}

	clf := training.NewLinearClassifier(len(features[0]), cfg.NumClasses)
	loop := training.New(cfg, clf, training.NewSGD(cfg.LearningRate, cfg.Momentum))
	loop.OnEpoch = func(em training.EpochMetrics) {
		fmt.Printf("epoch %d: train loss=%.4f acc=%.3f | val loss=%.4f acc=%.3f macro-F1=%.3f\n",
			em.Epoch, em.TrainLoss, em.TrainAccuracy, em.ValLoss, em.ValAccuracy, em.Eval.MacroF1)
		if em.Diverged {
			fmt.Println("  warning: non-finite loss observed this epoch")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	history, err := loop.Run(ctx, training.NewSliceSource(trainBatches), training.NewSliceSource(valBatches))
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error during training: %v\n", err)
		os.Exit(1)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Println("Interrupted; saving progress so far.")
	}

	checkpointPath := filepath.Join(outDir, "head.json")
	if err := training.SaveCheckpoint(checkpointPath, clf, classes); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving checkpoint: %v\n", err)
		os.Exit(1)
	}

	if len(history) > 0 {
		if err := training.WriteMetricsJSON(filepath.Join(outDir, "metrics.json"), history); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
			os.Exit(1)
		}
		if err := training.WriteCurves(outDir, history); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing curves: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\nWrote %s\n", checkpointPath)
}

// extractDataset scans the class tree and runs every decodable sample
// through the frozen backbone. Unreadable images are skipped, not fatal.
func extractDataset(root, backbonePath string) (classes []string, features [][]float64, labels []int, err error) {
	byClass, err := dataset.Scan(root)
	if err != nil {
		return nil, nil, nil, err
	}

	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	if len(classes) < 2 {
		return nil, nil, nil, fmt.Errorf("need at least 2 classes, found %d", len(classes))
	}

	extractor, err := training.NewONNXExtractor(backbonePath, backboneInputSize, backboneFeatures)
	if err != nil {
		return nil, nil, nil, err
	}
	defer extractor.Close()

	skipped := 0
	for classID, class := range classes {
		samples := byClass[class]
		fmt.Printf("Extracting features for %s (%d images)\n", class, len(samples))

		for _, sample := range samples {
			img, err := imageio.Load(sample.Path)
			if err != nil {
				fmt.Printf("  skipping unreadable image %s\n", sample.Path)
				skipped++
				continue
			}

			vec, err := extractor.Features(img)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("feature extraction failed for %s: %w", sample.Path, err)
			}
			features = append(features, vec)
			labels = append(labels, classID)
		}
	}

	if skipped > 0 {
		fmt.Printf("Skipped %d unreadable images\n", skipped)
	}
	if len(features) == 0 {
		return nil, nil, nil, fmt.Errorf("no usable samples under %s", root)
	}
	return classes, features, labels, nil
}
