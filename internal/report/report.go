// Package report renders quantization results for terminals and JSON
// consumers.
package report

import (
	"io"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/samcharles93/qlinear/pkg/quant"
)

// ParamError is the error summary of one parameter.
type ParamError struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Len     int     `json:"len"`
	MaxAbs  float64 `json:"max_abs_error"`
	MeanAbs float64 `json:"mean_abs_error"`
}

// Metrics is the flattened, name-ordered form of quant.ErrorMetrics.
type Metrics struct {
	Scale  float64      `json:"scale"`
	Bound  float64      `json:"error_bound"`
	Worst  float64      `json:"worst_error"`
	Params []ParamError `json:"params"`
}

// Flatten orders metrics by parameter name.
func Flatten(m quant.ErrorMetrics, scale float64) Metrics {
	out := Metrics{
		Scale:  scale,
		Bound:  quant.ErrorBound(scale),
		Worst:  m.Worst(),
		Params: make([]ParamError, 0, len(m.Vectors)+len(m.Scalars)),
	}
	for name, v := range m.Vectors {
		out.Params = append(out.Params, ParamError{
			Name: name, Kind: quant.KindVector.String(), Len: v.Len, MaxAbs: v.Max, MeanAbs: v.Mean,
		})
	}
	for name, e := range m.Scalars {
		out.Params = append(out.Params, ParamError{
			Name: name, Kind: quant.KindScalar.String(), Len: 1, MaxAbs: e, MeanAbs: e,
		})
	}
	slices.SortFunc(out.Params, func(a, b ParamError) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// MarshalMetrics encodes metrics compactly, for storage.
func MarshalMetrics(m quant.ErrorMetrics, scale float64) (string, error) {
	b, err := json.Marshal(Flatten(m, scale))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
