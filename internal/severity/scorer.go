// Package severity scores leaf images for infection coverage and buckets the
// result into discrete severity bands.
package severity

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"leaf-grader/internal/imageio"
	"leaf-grader/pkg/colorutil"
)

var (
	// ErrDecode indicates an unreadable or corrupt image file.
	ErrDecode = errors.New("cannot decode image")
	// ErrEmptyImage indicates an image with zero pixels.
	ErrEmptyImage = errors.New("image has no pixels")
)

// ScoreOptions configures the HSV mask that marks a pixel as infected.
// A pixel counts as infected when hue, saturation and value each fall inside
// the configured inclusive range. All channels use the full 8-bit scale.
type ScoreOptions struct {
	HueMin, HueMax float64
	SatMin, SatMax float64
	ValMin, ValMax float64
}

// DefaultScoreOptions returns the mask bounds tuned for pale lesions on
// leaf tissue: any hue, low saturation, high value.
func DefaultScoreOptions() ScoreOptions {
	return ScoreOptions{
		HueMin: 0, HueMax: 255,
		SatMin: 0, SatMax: 40,
		ValMin: 160, ValMax: 255,
	}
}

// Scorer computes the infection percentage of a leaf image.
type Scorer struct {
	opts ScoreOptions
}

// NewScorer creates a scorer with the given mask bounds.
func NewScorer(opts ScoreOptions) *Scorer {
	return &Scorer{opts: opts}
}

// Score returns the percentage of pixels inside the infection mask, in
// [0, 100]. It is a pure function over the decoded pixel data.
func (s *Scorer) Score(img image.Image) (float64, error) {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0, ErrEmptyImage
	}

	infected := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			h, sat, v := colorutil.RGBToHSVFull(float64(r>>8), float64(g>>8), float64(b>>8))
			if s.inMask(h, sat, v) {
				infected++
			}
		}
	}

	return 100 * float64(infected) / float64(total), nil
}

// ScoreMat scores a BGR gocv.Mat using an OpenCV in-range mask. The caller
// retains ownership of the Mat.
func (s *Scorer) ScoreMat(m gocv.Mat) (float64, error) {
	total := m.Rows() * m.Cols()
	if total == 0 {
		return 0, ErrEmptyImage
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(m, &hsv, gocv.ColorBGRToHSVFull)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(s.opts.HueMin, s.opts.SatMin, s.opts.ValMin, 0),
		gocv.NewScalar(s.opts.HueMax, s.opts.SatMax, s.opts.ValMax, 0),
		&mask)

	infected := gocv.CountNonZero(mask)
	return 100 * float64(infected) / float64(total), nil
}

// ScoreFile decodes a single image from disk and scores it with the pure-Go
// path. Undecodable files report ErrDecode.
func (s *Scorer) ScoreFile(path string) (float64, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return s.Score(img)
}

// ScoreFileMat decodes a single image with OpenCV and scores it with the
// mask path. Undecodable files report ErrDecode.
func (s *Scorer) ScoreFileMat(path string) (float64, error) {
	m := gocv.IMRead(path, gocv.IMReadColor)
	if m.Empty() {
		return 0, fmt.Errorf("%w: %s", ErrDecode, path)
	}
	defer m.Close()
	return s.ScoreMat(m)
}

func (s *Scorer) inMask(h, sat, v float64) bool {
	return h >= s.opts.HueMin && h <= s.opts.HueMax &&
		sat >= s.opts.SatMin && sat <= s.opts.SatMax &&
		v >= s.opts.ValMin && v <= s.opts.ValMax
}
