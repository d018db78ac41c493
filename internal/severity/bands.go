package severity

import (
	"fmt"
	"sort"
)

// Band is a named severity category covering the half-open percentage
// interval [Low, High).
type Band struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// Contains reports whether the percentage falls inside the band.
func (b Band) Contains(pct float64) bool {
	return pct >= b.Low && pct < b.High
}

// DefaultBands returns the standard two-band configuration.
// A percentage of exactly 100 falls outside both bands and classifies as
// undefined; the half-open convention is deliberate.
func DefaultBands() []Band {
	return []Band{
		{Label: "Mild", Low: 0, High: 50},
		{Label: "Severe", Low: 50, High: 100},
	}
}

// Classifier maps an infection percentage to a severity label.
type Classifier struct {
	bands []Band
}

// NewClassifier validates the band set and creates a classifier. Bands must
// be non-overlapping and collectively cover [0, 100) with no gaps.
func NewClassifier(bands []Band) (*Classifier, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("no severity bands configured")
	}

	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Low < sorted[j].Low })

	for _, b := range sorted {
		if b.Low >= b.High {
			return nil, fmt.Errorf("band %q has empty interval [%g, %g)", b.Label, b.Low, b.High)
		}
	}
	if sorted[0].Low != 0 {
		return nil, fmt.Errorf("bands must start at 0, got %g", sorted[0].Low)
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Low < prev.High {
			return nil, fmt.Errorf("bands %q and %q overlap", prev.Label, cur.Label)
		}
		if cur.Low > prev.High {
			return nil, fmt.Errorf("gap between bands %q and %q", prev.Label, cur.Label)
		}
	}
	if last := sorted[len(sorted)-1]; last.High != 100 {
		return nil, fmt.Errorf("bands must end at 100, got %g", last.High)
	}

	return &Classifier{bands: sorted}, nil
}

// Classify returns the label of the band containing the percentage. The
// second return is false when no band matches; that is a legitimate outcome
// (for example exactly 100 under the default bands), and callers routing
// images must skip such results rather than copying them.
func (c *Classifier) Classify(pct float64) (string, bool) {
	for _, b := range c.bands {
		if b.Contains(pct) {
			return b.Label, true
		}
	}
	return "", false
}

// Labels returns the configured band labels in interval order.
func (c *Classifier) Labels() []string {
	labels := make([]string, len(c.bands))
	for i, b := range c.bands {
		labels[i] = b.Label
	}
	return labels
}
