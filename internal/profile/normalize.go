package profile

import "math"

// InputValue describes how a DirectControl maps a control value onto the
// target's range.
type InputValue struct {
	Min    float64
	Max    float64
	Step   *float64
	Invert bool
}

// Normalize maps raw from [-1,1] onto [Min,Max]. Inversion mirrors the input
// before mapping; the mapped value is quantized to Step and clamped last.
func (iv InputValue) Normalize(raw float64) float64 {
	raw = math.Max(-1, math.Min(1, raw))
	if iv.Invert {
		raw = -raw
	}

	v := iv.Min + (raw+1)/2*(iv.Max-iv.Min)
	if iv.Step != nil && *iv.Step > 0 {
		v = math.Round(v / *iv.Step) * *iv.Step
		// keep quantized values free of float noise on the wire
		v = RoundTo(v, 6)
	}
	return clamp(v, iv.Min, iv.Max)
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}
