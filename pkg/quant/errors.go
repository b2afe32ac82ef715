package quant

import "errors"

var (
	// ErrInvalidParameters reports an empty, all-zero or non-finite parameter set.
	ErrInvalidParameters = errors.New("quant: invalid parameters")
	// ErrInvalidState reports a quantized set whose scale is not positive and finite.
	ErrInvalidState = errors.New("quant: invalid state")
	// ErrShapeMismatch reports parameter sets with different keys or shapes.
	ErrShapeMismatch = errors.New("quant: shape mismatch")
)
