// Package colorutil provides shared color conversions for the leaf grading pipeline.
package colorutil

import "math"

// RGBToHSVFull converts RGB (0-255) to full-range HSV where H, S and V each
// occupy the whole 8-bit scale (OpenCV's COLOR_*2HSV_FULL convention).
func RGBToHSVFull(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	// Scale 0-360 degrees onto the 8-bit range.
	h = h * 255.0 / 360.0

	return h, s, v
}
