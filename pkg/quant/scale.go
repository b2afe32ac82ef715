package quant

import (
	"fmt"
	"math"
)

// ComputeScale returns 127/max|v| over every element of every parameter, the
// largest scale that maps the extreme value onto the integer bound without
// clipping it.
func ComputeScale(params ParameterSet) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	maxAbs := MaxAbs(params)
	if maxAbs == 0 {
		return 0, fmt.Errorf("%w: all parameter values are zero", ErrInvalidParameters)
	}
	scale := MaxLevel / maxAbs
	if math.IsInf(scale, 0) {
		return 0, fmt.Errorf("%w: max magnitude %v is too small to scale", ErrInvalidParameters, maxAbs)
	}
	return scale, nil
}

// MaxAbs returns the largest magnitude across all parameters. Max is
// order-independent so iteration order does not matter.
func MaxAbs(params ParameterSet) float64 {
	var maxAbs float64
	for _, v := range params {
		for _, x := range v.data {
			maxAbs = max(maxAbs, math.Abs(x))
		}
	}
	return maxAbs
}

// ErrorBound is the worst-case reconstruction error of one element for a
// value that was not clipped.
func ErrorBound(scale float64) float64 {
	return 0.5 / scale
}

// boundTolerance absorbs the rounding of q/scale and |v'-v| for values that
// sit exactly halfway between two levels.
const boundTolerance = 1e-9

// WithinBound reports whether err is within ErrorBound(scale), allowing a
// relative slack of a few ulps.
func WithinBound(err, scale float64) bool {
	return err <= ErrorBound(scale)*(1+boundTolerance)
}
