package quant

// Dequantize reconstructs floating-point parameters as q/scale, keeping the
// shape of every parameter. For unclipped elements the result is within
// ErrorBound(scale) of the value that was quantized.
func Dequantize(q QuantizedParameterSet) (ParameterSet, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	out := make(ParameterSet, len(q.Values))
	for name, v := range q.Values {
		fs := make([]float64, len(v.data))
		for i, x := range v.data {
			fs[i] = float64(x) / q.Scale
		}
		out[name] = Value{kind: v.kind, data: fs}
	}
	return out, nil
}
