package dataset

import (
	"errors"
	"fmt"
)

// ErrEmptyClass indicates a class that needs augmentation but has no
// samples to derive from.
var ErrEmptyClass = errors.New("class has no samples to derive from")

// Plan computes, for every class below the target count, which source
// sample indices to re-derive. Exactly target-count indices are produced
// per deficient class, cycling through the existing pool in order
// (index i mod count), which keeps selection deterministic and spreads
// reuse evenly when the deficit is not a multiple of the pool size.
//
// Classes at or above the target get no entry; over-represented classes are
// never truncated here.
func Plan(counts map[string]int, target int) (map[string][]int, error) {
	plan := make(map[string][]int)
	for class, count := range counts {
		if count >= target {
			continue
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyClass, class)
		}

		deficit := target - count
		indices := make([]int, deficit)
		for i := 0; i < deficit; i++ {
			indices[i] = i % count
		}
		plan[class] = indices
	}
	return plan, nil
}
