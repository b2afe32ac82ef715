// Package quant maps the parameters of a linear model into a signed 8-bit
// fixed-point domain and back.
//
// A single scale is shared by every value in a parameter set. The scale is
// chosen so that the largest magnitude maps exactly to 127, which keeps the
// rounding error of every element within 0.5/scale.
package quant

import (
	"fmt"
	"math"
	"slices"
)

const (
	// MaxLevel and MinLevel bound the quantized integer domain.
	MaxLevel = 127
	MinLevel = -128
)

// Well-known parameter keys of a fitted linear model.
const (
	KeyCoefficients = "coefficients"
	KeyIntercept    = "intercept"
)

// Kind discriminates the Value variant.
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single named parameter: either a scalar or an ordered vector.
// The zero Value is invalid.
type Value struct {
	kind Kind
	data []float64
}

// Scalar returns a scalar parameter value.
func Scalar(v float64) Value {
	return Value{kind: KindScalar, data: []float64{v}}
}

// Vector returns a vector parameter value. The slice is copied.
func Vector(vs ...float64) Value {
	return Value{kind: KindVector, data: slices.Clone(vs)}
}

func (v Value) Kind() Kind { return v.kind }

// Len reports the element count; a scalar has one element.
func (v Value) Len() int { return len(v.data) }

// Float returns the scalar value. For vectors it returns the first element,
// or zero when empty.
func (v Value) Float() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return v.data[0]
}

// Floats returns a copy of the elements.
func (v Value) Floats() []float64 { return slices.Clone(v.data) }

// Shape is the variant and element count, used for shape comparisons.
type Shape struct {
	Kind Kind
	Len  int
}

func (v Value) Shape() Shape { return Shape{Kind: v.kind, Len: len(v.data)} }

func (s Shape) String() string {
	if s.Kind == KindScalar {
		return "scalar"
	}
	return fmt.Sprintf("vector[%d]", s.Len)
}

// ParameterSet is a named collection of model parameters.
type ParameterSet map[string]Value

// Keys returns the parameter names in sorted order.
func (p ParameterSet) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Validate reports ErrInvalidParameters when the set is empty, holds an
// unknown variant, or contains a non-finite value.
func (p ParameterSet) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty parameter set", ErrInvalidParameters)
	}
	for _, name := range p.Keys() {
		v := p[name]
		if v.kind != KindScalar && v.kind != KindVector {
			return fmt.Errorf("%w: parameter %q has no value", ErrInvalidParameters, name)
		}
		if v.kind == KindScalar && len(v.data) != 1 {
			return fmt.Errorf("%w: scalar %q holds %d elements", ErrInvalidParameters, name, len(v.data))
		}
		for i, x := range v.data {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: parameter %q[%d] is not finite (%v)", ErrInvalidParameters, name, i, x)
			}
		}
	}
	return nil
}

// QuantizedValue mirrors Value with int8 storage.
type QuantizedValue struct {
	kind Kind
	data []int8
}

// QuantizedScalar returns a quantized scalar.
func QuantizedScalar(q int8) QuantizedValue {
	return QuantizedValue{kind: KindScalar, data: []int8{q}}
}

// QuantizedVector returns a quantized vector. The slice is copied.
func QuantizedVector(qs ...int8) QuantizedValue {
	return QuantizedValue{kind: KindVector, data: slices.Clone(qs)}
}

func (q QuantizedValue) Kind() Kind   { return q.kind }
func (q QuantizedValue) Len() int     { return len(q.data) }
func (q QuantizedValue) Shape() Shape { return Shape{Kind: q.kind, Len: len(q.data)} }

// Ints returns a copy of the quantized elements.
func (q QuantizedValue) Ints() []int8 { return slices.Clone(q.data) }

// QuantizedParameterSet holds quantized values together with the one scale
// that relates them to floating point. The two never travel separately.
type QuantizedParameterSet struct {
	Values map[string]QuantizedValue
	Scale  float64

	// Clipped counts elements saturated to the integer bounds.
	Clipped int
}

// Keys returns the parameter names in sorted order.
func (q QuantizedParameterSet) Keys() []string {
	keys := make([]string, 0, len(q.Values))
	for k := range q.Values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Validate reports ErrInvalidState when the scale is not a positive finite
// number or a value has an unknown variant.
func (q QuantizedParameterSet) Validate() error {
	if err := checkScale(q.Scale); err != nil {
		return err
	}
	for _, name := range q.Keys() {
		v := q.Values[name]
		if v.kind != KindScalar && v.kind != KindVector {
			return fmt.Errorf("%w: quantized parameter %q has no value", ErrInvalidState, name)
		}
		if v.kind == KindScalar && len(v.data) != 1 {
			return fmt.Errorf("%w: quantized scalar %q holds %d elements", ErrInvalidState, name, len(v.data))
		}
	}
	return nil
}

// VectorError summarises the elementwise absolute error of one vector.
type VectorError struct {
	Max  float64
	Mean float64
	Len  int
}

// ErrorMetrics compares an original parameter set with its reconstruction.
type ErrorMetrics struct {
	Vectors map[string]VectorError
	Scalars map[string]float64
}

// Worst returns the largest absolute error over all parameters.
func (m ErrorMetrics) Worst() float64 {
	var worst float64
	for _, v := range m.Vectors {
		worst = max(worst, v.Max)
	}
	for _, v := range m.Scalars {
		worst = max(worst, v)
	}
	return worst
}

func checkScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return fmt.Errorf("%w: scale must be positive and finite, got %v", ErrInvalidState, scale)
	}
	return nil
}
