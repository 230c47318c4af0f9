package profile

import (
	"cmp"
	"math"
	"slices"
)

// rampPrecision is the number of decimals generated ramp points are rounded to,
// so repeated step additions cannot skip or duplicate the end value.
const rampPrecision = 4

// MaxRampThresholds caps the points a single ramp expands to.
const MaxRampThresholds = 10000

// Expand turns ramp templates into concrete thresholds. Non-ramp thresholds
// pass through unchanged, so expanding an expanded list is a no-op.
//
// A malformed ramp (step <= 0, or end below the start value) yields just its
// starting threshold, and a ramp stops after MaxRampThresholds points. Validate
// reports both at load time.
func Expand(thresholds []Threshold) []Threshold {
	out := make([]Threshold, 0, len(thresholds))
	for _, t := range thresholds {
		if !t.IsRamp() {
			out = append(out, t)
			continue
		}

		if !validRamp(t) {
			out = append(out, Threshold{
				Value:      t.Value,
				Activate:   t.Activate,
				Deactivate: t.Deactivate,
			})
			continue
		}

		end := RoundTo(*t.ValueEnd, rampPrecision)
		step := *t.ValueStep
		for current, n := RoundTo(t.Value, rampPrecision), 0; current <= end && n < MaxRampThresholds; n++ {
			out = append(out, Threshold{
				Value:      current,
				Activate:   t.Activate,
				Deactivate: t.Deactivate,
			})
			next := RoundTo(current+step, rampPrecision)
			if next <= current {
				break
			}
			current = next
		}
	}
	return out
}

// rampLen is the number of points a valid ramp expands to without the cap.
func rampLen(t Threshold) int {
	start := RoundTo(t.Value, rampPrecision)
	span := RoundTo(*t.ValueEnd, rampPrecision) - start
	return int(math.Floor(span/RoundTo(*t.ValueStep, rampPrecision)+1e-9)) + 1
}

func validRamp(t Threshold) bool {
	return RoundTo(*t.ValueStep, rampPrecision) > 0 && *t.ValueEnd >= t.Value
}

// Split divides expanded thresholds into the negative side and the
// non-negative side. Each side is ordered by distance from zero, so the n-th
// entry is the n-th one a control moving outwards crosses.
func Split(thresholds []Threshold) (negative, positive []Threshold) {
	for _, t := range thresholds {
		if t.Value < 0 {
			negative = append(negative, t)
		} else {
			positive = append(positive, t)
		}
	}
	slices.SortStableFunc(negative, func(a, b Threshold) int {
		return cmp.Compare(b.Value, a.Value)
	})
	slices.SortStableFunc(positive, func(a, b Threshold) int {
		return cmp.Compare(a.Value, b.Value)
	})
	return negative, positive
}
