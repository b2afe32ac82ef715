package quant

import "fmt"

// Scheme produces a quantized parameter set from floating-point parameters.
type Scheme interface {
	Name() string
	Quantize(params ParameterSet) (QuantizedParameterSet, error)
}

const (
	SchemeSymmetricInt8 = "sym-int8"
	SchemeFixed         = "fixed"
)

// SymmetricInt8 derives the scale from the parameters being quantized.
type SymmetricInt8 struct{}

func (SymmetricInt8) Name() string { return SchemeSymmetricInt8 }

func (SymmetricInt8) Quantize(params ParameterSet) (QuantizedParameterSet, error) {
	return QuantizeAuto(params)
}

// FixedScale applies an externally supplied scale. Values beyond 127/Scale
// in magnitude are clipped.
type FixedScale struct {
	Scale float64
}

func (FixedScale) Name() string { return SchemeFixed }

func (f FixedScale) Quantize(params ParameterSet) (QuantizedParameterSet, error) {
	return Quantize(params, f.Scale)
}

// SchemeByName resolves a scheme name. scale is only used by "fixed".
func SchemeByName(name string, scale float64) (Scheme, error) {
	switch name {
	case "", SchemeSymmetricInt8:
		return SymmetricInt8{}, nil
	case SchemeFixed:
		if err := checkScale(scale); err != nil {
			return nil, err
		}
		return FixedScale{Scale: scale}, nil
	default:
		return nil, fmt.Errorf("quant: unknown scheme %q", name)
	}
}
