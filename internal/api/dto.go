package api

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/qlinear/internal/registry"
	"github.com/samcharles93/qlinear/internal/report"
	"github.com/samcharles93/qlinear/pkg/quant"
)

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ParamsResponse carries float parameters (original, dequantized) or int8
// parameters with their scale (quantized). Scalars encode as numbers and
// vectors as arrays.
type ParamsResponse struct {
	Which   string         `json:"which"`
	Params  map[string]any `json:"params"`
	Scale   float64        `json:"scale,omitempty"`
	Clipped int            `json:"clipped,omitempty"`
}

type PredictRequest struct {
	Which    string      `json:"which"`
	Features [][]float64 `json:"features"`
}

type PredictResponse struct {
	Which       string    `json:"which"`
	Predictions []float64 `json:"predictions"`
}

// QuantizeRequest quantizes an arbitrary parameter set. A zero Scale
// derives the scale from the parameters.
type QuantizeRequest struct {
	Parameters map[string]json.RawMessage `json:"parameters"`
	Scale      float64                    `json:"scale"`
}

type QuantizeResponse struct {
	Scale       float64        `json:"scale"`
	Clipped     int            `json:"clipped"`
	Quantized   map[string]any `json:"quantized"`
	Dequantized map[string]any `json:"dequantized"`
	Metrics     report.Metrics `json:"metrics"`
}

type RunsResponse struct {
	Runs []registry.Run `json:"runs"`
}

func toParameterSet(raw map[string]json.RawMessage) (quant.ParameterSet, error) {
	if len(raw) == 0 {
		return nil, newInvalidRequest("parameters must not be empty")
	}
	ps := make(quant.ParameterSet, len(raw))
	for name, msg := range raw {
		if strings.TrimSpace(string(msg)) == "null" {
			return nil, newInvalidRequest("parameter %q: null value", name)
		}
		var s float64
		if err := json.Unmarshal(msg, &s); err == nil {
			ps[name] = quant.Scalar(s)
			continue
		}
		var v []float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, newInvalidRequest("parameter %q: want a number or an array of numbers", name)
		}
		ps[name] = quant.Vector(v...)
	}
	return ps, nil
}

func fromParameterSet(ps quant.ParameterSet) map[string]any {
	out := make(map[string]any, len(ps))
	for name, v := range ps {
		if v.Kind() == quant.KindScalar {
			out[name] = v.Float()
		} else {
			out[name] = v.Floats()
		}
	}
	return out
}

func fromQuantized(q quant.QuantizedParameterSet) map[string]any {
	out := make(map[string]any, len(q.Values))
	for name, v := range q.Values {
		ints := make([]int, v.Len())
		for i, x := range v.Ints() {
			ints[i] = int(x)
		}
		if v.Kind() == quant.KindScalar {
			out[name] = ints[0]
		} else {
			out[name] = ints
		}
	}
	return out
}
