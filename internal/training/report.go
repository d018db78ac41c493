package training

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WriteMetricsJSON persists the per-epoch records as indented JSON so
// downstream tooling can assert on numeric fields directly.
func WriteMetricsJSON(path string, history []EpochMetrics) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// WriteCurves renders loss and accuracy curves over epochs into loss.png
// and accuracy.png under dir.
func WriteCurves(dir string, history []EpochMetrics) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	curves := func(get func(EpochMetrics) (train, val float64)) (plotter.XYs, plotter.XYs) {
		trainXYs := make(plotter.XYs, len(history))
		valXYs := make(plotter.XYs, len(history))
		for i, em := range history {
			train, val := get(em)
			trainXYs[i] = plotter.XY{X: float64(em.Epoch), Y: train}
			valXYs[i] = plotter.XY{X: float64(em.Epoch), Y: val}
		}
		return trainXYs, valXYs
	}

	lossTrain, lossVal := curves(func(em EpochMetrics) (float64, float64) {
		return em.TrainLoss, em.ValLoss
	})
	if err := writeCurve(filepath.Join(dir, "loss.png"), "Loss", lossTrain, lossVal); err != nil {
		return err
	}

	accTrain, accVal := curves(func(em EpochMetrics) (float64, float64) {
		return em.TrainAccuracy, em.ValAccuracy
	})
	return writeCurve(filepath.Join(dir, "accuracy.png"), "Accuracy", accTrain, accVal)
}

func writeCurve(path, title string, train, val plotter.XYs) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"

	if err := plotutil.AddLines(p, "train", train, "val", val); err != nil {
		return fmt.Errorf("failed to build %s plot: %w", title, err)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
