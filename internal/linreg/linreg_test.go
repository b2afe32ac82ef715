package linreg

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/qlinear/pkg/quant"
)

func TestFitRecoversExactPlane(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	want := []float64{0.8, -2.5, 0.3}
	const intercept = 1.25

	X := make([][]float64, 50)
	y := make([]float64, len(X))
	for i := range X {
		X[i] = []float64{rng.NormFloat64(), rng.NormFloat64() * 3, rng.Float64() * 10}
		y[i] = intercept
		for j, c := range want {
			y[i] += c * X[i][j]
		}
	}

	m, err := Fit(X, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, m.Coefficients, 1e-9)
	assert.InDelta(t, intercept, m.Intercept, 1e-9)

	r2, err := m.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestFitErrors(t *testing.T) {
	t.Parallel()

	_, err := Fit(nil, nil)
	assert.ErrorIs(t, err, ErrShape)

	_, err = Fit([][]float64{{1}, {2}}, []float64{1})
	assert.ErrorIs(t, err, ErrShape)

	_, err = Fit([][]float64{{1, 2}, {3}, {4, 5}, {6, 7}}, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrShape)

	_, err = Fit([][]float64{{1, 2}, {3, 4}}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrSingular)

	// Collinear columns.
	X := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}, {5, 10}}
	_, err = Fit(X, []float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrSingular)
}

func TestPredict(t *testing.T) {
	t.Parallel()

	m := &Model{Coefficients: []float64{2, -1}, Intercept: 0.5}
	got, err := m.Predict([][]float64{{1, 1}, {0, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.5}, got)

	_, err = m.PredictOne([]float64{1})
	assert.ErrorIs(t, err, ErrShape)

	var empty Model
	_, err = empty.PredictOne([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestR2(t *testing.T) {
	t.Parallel()

	r2, err := R2([]float64{1, 2, 3}, []float64{2, 2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r2, 1e-12)

	_, err = R2([]float64{1}, nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestParamsRoundTrip(t *testing.T) {
	t.Parallel()

	m := &Model{Coefficients: []float64{0.5, -2.5, 0.3}, Intercept: 0.1, Features: []string{"a", "b", "c"}}
	ps, err := m.Params()
	require.NoError(t, err)
	require.NoError(t, ps.Validate())
	assert.Equal(t, quant.Shape{Kind: quant.KindVector, Len: 3}, ps[quant.KeyCoefficients].Shape())
	assert.Equal(t, quant.Shape{Kind: quant.KindScalar, Len: 1}, ps[quant.KeyIntercept].Shape())

	back, err := FromParams(ps, m.Features)
	require.NoError(t, err)
	assert.Equal(t, m, back)

	// The set is a copy.
	m.Coefficients[0] = math.Pi
	assert.Equal(t, 0.5, ps[quant.KeyCoefficients].Floats()[0])
}

func TestFromParamsRejectsWrongShapes(t *testing.T) {
	t.Parallel()

	cases := map[string]quant.ParameterSet{
		"missing intercept": {quant.KeyCoefficients: quant.Vector(1, 2)},
		"missing coef":      {quant.KeyIntercept: quant.Scalar(1)},
		"scalar coef":       {quant.KeyCoefficients: quant.Scalar(1), quant.KeyIntercept: quant.Scalar(1)},
		"vector intercept":  {quant.KeyCoefficients: quant.Vector(1), quant.KeyIntercept: quant.Vector(1)},
	}
	for name, ps := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := FromParams(ps, nil)
			assert.ErrorIs(t, err, quant.ErrShapeMismatch)
		})
	}

	ps := quant.ParameterSet{quant.KeyCoefficients: quant.Vector(1, 2), quant.KeyIntercept: quant.Scalar(0)}
	_, err := FromParams(ps, []string{"only-one"})
	assert.ErrorIs(t, err, quant.ErrShapeMismatch)
}
