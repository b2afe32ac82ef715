package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/qlinear/internal/config"
)

func openTest(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(config.Database{SQLite: filepath.Join(t.TempDir(), "db", "runs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestRecordAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := openTest(t)

	run := &Run{
		ID:            uuid.NewString(),
		Scheme:        "sym-int8",
		Scale:         50.8,
		Clipped:       0,
		WorstError:    0.0098,
		R2Original:    0.61,
		R2Dequantized: 0.60,
		MetricsJSON:   `{"scalars":{"intercept":0.001}}`,
		ArtifactsDir:  "models",
	}
	require.NoError(t, reg.Record(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	got, err := reg.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Scale, got.Scale)
	assert.Equal(t, run.MetricsJSON, got.MetricsJSON)
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	_, err := openTest(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := openTest(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, reg.Record(ctx, &Run{ID: id, Scheme: "sym-int8", Scale: 1, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	runs, err := reg.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = reg.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRecordValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := openTest(t)
	assert.Error(t, reg.Record(ctx, &Run{}))

	require.NoError(t, reg.Record(ctx, &Run{ID: "dup", Scheme: "fixed", Scale: 2}))
	assert.Error(t, reg.Record(ctx, &Run{ID: "dup", Scheme: "fixed", Scale: 2}))
}

func TestOpenRequiresDatabase(t *testing.T) {
	t.Parallel()

	_, err := Open(config.Database{})
	assert.Error(t, err)
}
