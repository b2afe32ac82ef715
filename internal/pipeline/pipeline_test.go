package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/config"
	"github.com/samcharles93/qlinear/internal/logger"
	"github.com/samcharles93/qlinear/internal/registry"
	"github.com/samcharles93/qlinear/pkg/quant"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ArtifactsDir = filepath.Join(t.TempDir(), "models")
	cfg.SyntheticSamples = 400
	cfg.Database = config.Database{Disabled: true}
	return cfg
}

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.Discard())
}

func TestTrainQuantizePredict(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	cfg := testConfig(t)

	tr, err := Train(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 320, tr.TrainSize)
	assert.Equal(t, 80, tr.TestSize)
	assert.Greater(t, tr.R2, 0.5)
	assert.Len(t, tr.Model.Coefficients, 8)
	assert.FileExists(t, tr.Path)

	res, err := Quantize(ctx, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, tr.RunID, res.RunID)
	assert.Equal(t, quant.SchemeSymmetricInt8, res.Scheme)
	assert.Zero(t, res.Clipped)

	want, err := quant.ComputeScale(res.Original)
	require.NoError(t, err)
	assert.Equal(t, want, res.Scale)
	assert.LessOrEqual(t, res.Metrics.Worst(), quant.ErrorBound(res.Scale)*(1+1e-9))
	assert.InDelta(t, tr.R2, res.R2Original, 1e-12)
	assert.Greater(t, res.MaxPredictionDelta, 0.0)

	for _, p := range res.Paths {
		assert.FileExists(t, p)
	}
	assert.Equal(t, res.RunID, res.Summary().RunID)

	preds, err := Predict(ctx, cfg, WhichDequantized, 0)
	require.NoError(t, err)
	assert.Len(t, preds.Values, DefaultPredictRows)
	assert.Len(t, preds.Truth, DefaultPredictRows)

	orig, err := Predict(ctx, cfg, "", 3)
	require.NoError(t, err)
	assert.Equal(t, WhichOriginal, orig.Which)
	assert.Len(t, orig.Values, 3)
	assert.NotEqual(t, orig.Values, preds.Values[:3])

	_, err = Predict(ctx, cfg, "int4", 0)
	assert.Error(t, err)
}

func TestQuantizeFixedScaleClips(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	cfg := testConfig(t)
	cfg.Scheme = quant.SchemeFixed
	cfg.FixedScale = 100

	_, err := Train(ctx, cfg)
	require.NoError(t, err)
	res, err := Quantize(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Scale)
	assert.Positive(t, res.Clipped)
	assert.Greater(t, res.Metrics.Worst(), quant.ErrorBound(res.Scale))
}

func TestQuantizeWithoutModel(t *testing.T) {
	t.Parallel()

	_, err := Quantize(testContext(), testConfig(t))
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestQuantizeRecordsRun(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	cfg := testConfig(t)
	cfg.Database = config.Database{SQLite: filepath.Join(cfg.ArtifactsDir, "runs.db")}

	_, err := Train(ctx, cfg)
	require.NoError(t, err)
	res, err := Quantize(ctx, cfg)
	require.NoError(t, err)

	reg, err := registry.Open(cfg.Database)
	require.NoError(t, err)
	defer func() { _ = reg.Close() }()

	run, err := reg.Get(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Scale, run.Scale)
	assert.Equal(t, res.Metrics.Worst(), run.WorstError)
	assert.Contains(t, run.MetricsJSON, "coefficients")
}

func TestLoadDataCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n2,4\n3,6\n"), 0o644))

	cfg := testConfig(t)
	cfg.Data = path
	ds, err := LoadData(testContext(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, "y", ds.TargetName)

	cfg.Data = filepath.Join(t.TempDir(), "missing.csv")
	_, err = LoadData(testContext(), cfg)
	assert.Error(t, err)
}
