package quant

import (
	"fmt"
	"math"
)

// Evaluate compares original with its reconstruction. Both sets must carry
// the same keys with the same shapes, otherwise ErrShapeMismatch.
//
// The mean is accumulated in index order. Summing in another order can differ
// in the last few ulps; callers comparing means should allow for that.
func Evaluate(original, reconstructed ParameterSet) (ErrorMetrics, error) {
	if err := sameShape(original, reconstructed); err != nil {
		return ErrorMetrics{}, err
	}

	m := ErrorMetrics{
		Vectors: make(map[string]VectorError),
		Scalars: make(map[string]float64),
	}
	for _, name := range original.Keys() {
		a, b := original[name], reconstructed[name]
		switch a.kind {
		case KindScalar:
			m.Scalars[name] = math.Abs(a.data[0] - b.data[0])
		case KindVector:
			ve := VectorError{Len: len(a.data)}
			var sum float64
			for i := range a.data {
				d := math.Abs(a.data[i] - b.data[i])
				ve.Max = max(ve.Max, d)
				sum += d
			}
			if ve.Len > 0 {
				ve.Mean = sum / float64(ve.Len)
			}
			m.Vectors[name] = ve
		default:
			return ErrorMetrics{}, fmt.Errorf("%w: parameter %q has no value", ErrShapeMismatch, name)
		}
	}
	return m, nil
}

func sameShape(a, b ParameterSet) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d parameters vs %d", ErrShapeMismatch, len(a), len(b))
	}
	for name, va := range a {
		vb, ok := b[name]
		if !ok {
			return fmt.Errorf("%w: parameter %q missing from reconstruction", ErrShapeMismatch, name)
		}
		if va.Shape() != vb.Shape() {
			return fmt.Errorf("%w: parameter %q is %s vs %s", ErrShapeMismatch, name, va.Shape(), vb.Shape())
		}
		if va.kind == KindScalar && len(va.data) != 1 {
			return fmt.Errorf("%w: scalar %q holds %d elements", ErrShapeMismatch, name, len(va.data))
		}
	}
	return nil
}
