package quant

import "math"

// Quantize maps every value to clamp(round(v*scale), -128, 127). Rounding is
// half away from zero and always happens before clamping, so out-of-range
// values saturate instead of wrapping. Saturation is not an error; it is
// counted in Clipped.
func Quantize(params ParameterSet, scale float64) (QuantizedParameterSet, error) {
	if err := params.Validate(); err != nil {
		return QuantizedParameterSet{}, err
	}
	if err := checkScale(scale); err != nil {
		return QuantizedParameterSet{}, err
	}

	out := QuantizedParameterSet{
		Values: make(map[string]QuantizedValue, len(params)),
		Scale:  scale,
	}
	for name, v := range params {
		qs := make([]int8, len(v.data))
		for i, x := range v.data {
			q, clipped := quantizeOne(x, scale)
			if clipped {
				out.Clipped++
			}
			qs[i] = q
		}
		out.Values[name] = QuantizedValue{kind: v.kind, data: qs}
	}
	return out, nil
}

// QuantizeAuto quantizes params with the scale derived from params itself.
// No element is clipped.
func QuantizeAuto(params ParameterSet) (QuantizedParameterSet, error) {
	scale, err := ComputeScale(params)
	if err != nil {
		return QuantizedParameterSet{}, err
	}
	return Quantize(params, scale)
}

func quantizeOne(x, scale float64) (int8, bool) {
	r := math.Round(x * scale)
	switch {
	case r > MaxLevel:
		return MaxLevel, true
	case r < MinLevel:
		return MinLevel, true
	default:
		return int8(r), false
	}
}
