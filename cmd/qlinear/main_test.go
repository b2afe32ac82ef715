package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against a config file rooted in dir and returns
// stdout.
func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	argv := append([]string{"qlinear", "--config", filepath.Join(dir, "config.yaml"), "--log-format", "text", "--log-level", "error"}, args...)
	require.NoError(t, app.Run(context.Background(), argv), "args: %v", args)
	return out.String()
}

func writeConfig(t *testing.T, dir string) {
	t.Helper()
	cfg := "artifacts_dir: " + filepath.Join(dir, "models") + "\n" +
		"synthetic_samples: 300\n" +
		"database:\n  sqlite: " + filepath.Join(dir, "runs.db") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644))
}

func TestCLIWorkflow(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir)

	out := run(t, dir, "train")
	assert.Contains(t, out, "R2 Score:")
	assert.FileExists(t, filepath.Join(dir, "models", "linear_regression.mcf"))

	out = run(t, dir, "--json", "quantize")
	var res struct {
		RunID   string  `json:"run_id"`
		Scheme  string  `json:"scheme"`
		Scale   float64 `json:"scale"`
		Clipped int     `json:"clipped"`
		Metrics struct {
			Bound float64 `json:"error_bound"`
			Worst float64 `json:"worst_error"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "sym-int8", res.Scheme)
	assert.Positive(t, res.Scale)
	assert.Zero(t, res.Clipped)
	assert.LessOrEqual(t, res.Metrics.Worst, res.Metrics.Bound*(1+1e-9))

	for _, name := range []string{"unquant_params.mcf", "quant_params.mcf", "dequant_model.mcf"} {
		assert.FileExists(t, filepath.Join(dir, "models", name))
	}

	out = run(t, dir, "inspect")
	assert.Contains(t, out, "sym-int8")

	out = run(t, dir, "predict", "--model", "dequantized", "--rows", "3")
	assert.NotEmpty(t, out)

	var runs []struct {
		ID string `json:"id"`
	}
	out = run(t, dir, "--json", "runs")
	require.NoError(t, json.Unmarshal([]byte(out), &runs), out)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
}

func TestCLIFixedScaleFlag(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir)

	run(t, dir, "train")
	out := run(t, dir, "--json", "quantize", "--scale", "1")
	var res struct {
		Scheme  string  `json:"scheme"`
		Scale   float64 `json:"scale"`
		Clipped int     `json:"clipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "fixed", res.Scheme)
	assert.Equal(t, 1.0, res.Scale)
}

func TestCLIRunDatabaseFollowsArtifactsDir(t *testing.T) {
	dir := t.TempDir()
	cfg := "artifacts_dir: " + filepath.Join(dir, "models") + "\n" + "synthetic_samples: 300\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644))

	other := filepath.Join(dir, "other")
	run(t, dir, "--artifacts-dir", other, "train")
	run(t, dir, "--artifacts-dir", other, "quantize")

	assert.FileExists(t, filepath.Join(other, "runs.db"))
	assert.NoFileExists(t, filepath.Join(dir, "models", "runs.db"))

	var runs []struct {
		ID string `json:"id"`
	}
	out := run(t, dir, "--artifacts-dir", other, "--json", "runs")
	require.NoError(t, json.Unmarshal([]byte(out), &runs), out)
	assert.Len(t, runs, 1)
}

func TestCLIVersion(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir)
	assert.Contains(t, run(t, dir, "version"), "version:")
}
