// Package linreg fits and evaluates ordinary least squares models and
// converts them to and from quantizable parameter sets.
package linreg

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/samcharles93/qlinear/pkg/quant"
)

var (
	ErrNotFitted = errors.New("linreg: model is not fitted")
	ErrSingular  = errors.New("linreg: design matrix is singular")
	ErrShape     = errors.New("linreg: input shape mismatch")
)

// maxCondition bounds the design matrix condition number accepted by Fit.
const maxCondition = 1e12

// Model is a fitted linear predictor y = x·Coefficients + Intercept.
type Model struct {
	Coefficients []float64
	Intercept    float64
	Features     []string
}

// Fit solves the least squares problem for X (rows x features) and y with an
// intercept column, using a QR factorisation of the design matrix.
func Fit(X [][]float64, y []float64) (*Model, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("%w: %d rows vs %d targets", ErrShape, n, len(y))
	}
	p := len(X[0])
	if p == 0 {
		return nil, fmt.Errorf("%w: no features", ErrShape)
	}
	if n <= p {
		return nil, fmt.Errorf("%w: %d samples cannot determine %d parameters", ErrSingular, n, p+1)
	}

	design := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		if len(row) != p {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), p)
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewDense(n, 1, slices.Clone(y))

	var qr mat.QR
	qr.Factorize(design)
	if c := qr.Cond(); math.IsNaN(c) || c > maxCondition {
		return nil, fmt.Errorf("%w: condition number %g", ErrSingular, c)
	}
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = beta.At(j+1, 0)
	}
	return &Model{Coefficients: coef, Intercept: beta.At(0, 0)}, nil
}

// PredictOne evaluates the model for a single sample.
func (m *Model) PredictOne(x []float64) (float64, error) {
	if m == nil || len(m.Coefficients) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: sample has %d features, model has %d", ErrShape, len(x), len(m.Coefficients))
	}
	return floats.Dot(x, m.Coefficients) + m.Intercept, nil
}

// Predict evaluates the model for every row of X.
func (m *Model) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		v, err := m.PredictOne(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Score returns the coefficient of determination of the model on X, y.
func (m *Model) Score(X [][]float64, y []float64) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return R2(y, pred)
}

// R2 is the coefficient of determination of predictions against truth.
func R2(truth, pred []float64) (float64, error) {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0, fmt.Errorf("%w: %d targets vs %d predictions", ErrShape, len(truth), len(pred))
	}
	return stat.RSquaredFrom(pred, truth, nil), nil
}

// Params extracts the model parameters as a quantizable set.
func (m *Model) Params() (quant.ParameterSet, error) {
	if m == nil || len(m.Coefficients) == 0 {
		return nil, ErrNotFitted
	}
	return quant.ParameterSet{
		quant.KeyCoefficients: quant.Vector(m.Coefficients...),
		quant.KeyIntercept:    quant.Scalar(m.Intercept),
	}, nil
}

// FromParams rebuilds a predictor from a parameter set holding a
// coefficient vector and a scalar intercept.
func FromParams(ps quant.ParameterSet, features []string) (*Model, error) {
	coef, ok := ps[quant.KeyCoefficients]
	if !ok || coef.Kind() != quant.KindVector || coef.Len() == 0 {
		return nil, fmt.Errorf("%w: %q must be a non-empty vector", quant.ErrShapeMismatch, quant.KeyCoefficients)
	}
	intercept, ok := ps[quant.KeyIntercept]
	if !ok || intercept.Kind() != quant.KindScalar {
		return nil, fmt.Errorf("%w: %q must be a scalar", quant.ErrShapeMismatch, quant.KeyIntercept)
	}
	if len(features) != 0 && len(features) != coef.Len() {
		return nil, fmt.Errorf("%w: %d feature names for %d coefficients", quant.ErrShapeMismatch, len(features), coef.Len())
	}
	return &Model{
		Coefficients: coef.Floats(),
		Intercept:    intercept.Float(),
		Features:     slices.Clone(features),
	}, nil
}
