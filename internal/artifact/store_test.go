package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/qlinear/internal/linreg"
	"github.com/samcharles93/qlinear/pkg/mcf"
	"github.com/samcharles93/qlinear/pkg/quant"
)

func testModel() *linreg.Model {
	return &linreg.Model{
		Coefficients: []float64{1.0, -2.5, 0.3},
		Intercept:    0.1,
		Features:     []string{"a", "b", "c"},
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "models")
	s, err := New(dir, false)
	require.NoError(t, err)

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	assert.Equal(t, filepath.Join(dir, FileQuantized), s.Path(FileQuantized))

	_, err = New("", false)
	assert.Error(t, err)
}

func TestModelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "raw", true: "zstd"}[compress], func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s, err := New(t.TempDir(), compress)
			require.NoError(t, err)

			r2 := 0.61
			require.NoError(t, s.SaveModel(ctx, FileModel, testModel(), Meta{RunID: "run-1", Target: "MedHouseVal", R2: &r2}))

			m, info, err := s.LoadModel(ctx, FileModel)
			require.NoError(t, err)
			assert.Equal(t, testModel(), m)
			assert.Equal(t, mcf.KindModel, info.Kind)
			assert.Equal(t, "run-1", info.RunID)
			assert.Equal(t, []string{"a", "b", "c"}, info.Features)
			require.NotNil(t, info.R2)
			assert.Equal(t, r2, *info.R2)

			sum, err := Inspect(s.Path(FileModel))
			require.NoError(t, err)
			assert.Equal(t, compress, sum.Compressed)
		})
	}
}

func TestDequantizedModelKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, s.SaveModel(ctx, FileDequantized, testModel(), Meta{}))

	_, info, err := s.LoadModel(ctx, FileDequantized)
	require.NoError(t, err)
	assert.Equal(t, mcf.KindDequantizedModel, info.Kind)
}

func TestParamsRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(t.TempDir(), true)
	require.NoError(t, err)

	ps, err := testModel().Params()
	require.NoError(t, err)
	require.NoError(t, s.SaveParams(ctx, ps, Meta{RunID: "r"}))

	got, info, err := s.LoadParams(ctx, FileParams)
	require.NoError(t, err)
	assert.Equal(t, mcf.KindParams, info.Kind)
	assert.Equal(t, ps, got)
}

func TestQuantizedRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(t.TempDir(), false)
	require.NoError(t, err)

	ps, err := testModel().Params()
	require.NoError(t, err)
	q, err := quant.QuantizeAuto(ps)
	require.NoError(t, err)
	require.NoError(t, s.SaveQuantized(ctx, q, Meta{Scheme: quant.SchemeSymmetricInt8}))

	got, info, err := s.LoadQuantized(ctx)
	require.NoError(t, err)
	assert.Equal(t, mcf.KindQuantizedParams, info.Kind)
	assert.Equal(t, q.Scale, got.Scale)
	assert.Equal(t, q.Clipped, got.Clipped)
	assert.Equal(t, q.Values, got.Values)

	sum, err := Inspect(s.Path(FileQuantized))
	require.NoError(t, err)
	require.NotNil(t, sum.Quant)
	assert.Equal(t, "sym-int8", sum.Quant.Method)
	assert.Equal(t, q.Scale, sum.Quant.Scale)
	require.Len(t, sum.Params, 2)
	assert.Equal(t, ParamSummary{Name: "coefficients", Kind: "vector", DType: "i8", Count: 3}, sum.Params[0])
	assert.Equal(t, ParamSummary{Name: "intercept", Kind: "scalar", DType: "i8", Count: 1}, sum.Params[1])
	assert.Len(t, sum.Sections, 3)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(t.TempDir(), false)
	require.NoError(t, err)

	_, _, err = s.LoadQuantized(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.LoadModel(ctx, FileModel)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadQuantizedRejectsBadScale(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, false)
	require.NoError(t, err)

	f, err := os.Create(s.Path(FileQuantized))
	require.NoError(t, err)
	w, err := mcf.NewWriter(f)
	require.NoError(t, err)

	mi, err := mcf.EncodeModelInfo(&mcf.ModelInfo{Kind: mcf.KindQuantizedParams})
	require.NoError(t, err)
	qi, err := mcf.EncodeQuantInfo(mcf.QuantInfo{Method: mcf.MethodSymInt8, Scale: -1})
	require.NoError(t, err)
	params, err := mcf.EncodeQuantParams(quant.QuantizedParameterSet{
		Values: map[string]quant.QuantizedValue{"intercept": quant.QuantizedScalar(5)},
		Scale:  1,
	})
	require.NoError(t, err)

	require.NoError(t, w.WriteSection(mcf.SectionModelInfo, mcf.ModelInfoVersion, mi))
	require.NoError(t, w.WriteSection(mcf.SectionQuantInfo, mcf.QuantInfoVersion, qi))
	require.NoError(t, w.WriteSection(mcf.SectionParams, mcf.ParamsVersion, params))
	require.NoError(t, w.Finalise())
	require.NoError(t, f.Close())

	_, _, err = s.LoadQuantized(context.Background())
	assert.ErrorIs(t, err, quant.ErrInvalidState)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, true)
	require.NoError(t, err)
	require.NoError(t, s.SaveModel(context.Background(), FileModel, testModel(), Meta{}))
	require.NoError(t, s.SaveModel(context.Background(), FileModel, testModel(), Meta{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileModel, entries[0].Name())
}

func TestSaveRejectsUnfittedModel(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), false)
	require.NoError(t, err)
	err = s.SaveModel(context.Background(), FileModel, &linreg.Model{}, Meta{})
	assert.ErrorIs(t, err, linreg.ErrNotFitted)
}
