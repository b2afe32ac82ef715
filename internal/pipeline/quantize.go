package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/config"
	"github.com/samcharles93/qlinear/internal/linreg"
	"github.com/samcharles93/qlinear/internal/logger"
	"github.com/samcharles93/qlinear/internal/registry"
	"github.com/samcharles93/qlinear/internal/report"
	"github.com/samcharles93/qlinear/pkg/quant"
)

// Result describes one quantization run.
type Result struct {
	RunID   string
	Scheme  string
	Scale   float64
	Clipped int
	Metrics quant.ErrorMetrics

	R2Original         float64
	R2Dequantized      float64
	MaxPredictionDelta float64

	Original    quant.ParameterSet
	Quantized   quant.QuantizedParameterSet
	Dequantized quant.ParameterSet

	Paths []string
}

func (r *Result) Summary() report.Summary {
	return report.Summary{
		RunID:              r.RunID,
		Scheme:             r.Scheme,
		Scale:              r.Scale,
		Clipped:            r.Clipped,
		R2Original:         r.R2Original,
		R2Dequantized:      r.R2Dequantized,
		MaxPredictionDelta: r.MaxPredictionDelta,
		Paths:              r.Paths,
	}
}

// Quantize loads the trained model, quantizes its parameters with the
// configured scheme and persists the float and int8 parameter artifacts.
// The quantized artifact is then read back, dequantized and compared with
// the original, so the reported errors cover the stored form.
func Quantize(ctx context.Context, cfg config.Config) (*Result, error) {
	runID := uuid.NewString()
	log := logger.Stage(ctx, "quantize").With(logger.KeyRunID, runID)
	start := time.Now()

	scheme, err := cfg.QuantScheme()
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	model, info, err := store.LoadModel(ctx, artifact.FileModel)
	if err != nil {
		return nil, err
	}

	params, err := model.Params()
	if err != nil {
		return nil, err
	}
	q, err := scheme.Quantize(params)
	if err != nil {
		return nil, err
	}
	log.Info("parameters quantized", logger.KeyScale, q.Scale, "clipped", q.Clipped, "scheme", scheme.Name())
	if q.Clipped > 0 {
		log.Warn("values saturated at the int8 range", "clipped", q.Clipped, logger.KeyScale, q.Scale)
	}

	meta := artifact.Meta{RunID: runID, Features: model.Features, Target: info.Target, Scheme: scheme.Name()}
	var g errgroup.Group
	g.Go(func() error { return store.SaveParams(ctx, params, meta) })
	g.Go(func() error { return store.SaveQuantized(ctx, q, meta) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stored, _, err := store.LoadQuantized(ctx)
	if err != nil {
		return nil, err
	}
	deq, err := quant.Dequantize(stored)
	if err != nil {
		return nil, err
	}
	metrics, err := quant.Evaluate(params, deq)
	if err != nil {
		return nil, err
	}
	for _, name := range deq.Keys() {
		log.Debug("parameter error", logger.KeyParam, name, "worst", paramWorst(metrics, name))
	}

	recon, err := linreg.FromParams(deq, model.Features)
	if err != nil {
		return nil, err
	}

	_, test, err := split(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{
		RunID:       runID,
		Scheme:      scheme.Name(),
		Scale:       stored.Scale,
		Clipped:     stored.Clipped,
		Metrics:     metrics,
		Original:    params,
		Quantized:   stored,
		Dequantized: deq,
		Paths: []string{
			store.Path(artifact.FileParams),
			store.Path(artifact.FileQuantized),
			store.Path(artifact.FileDequantized),
		},
	}
	if err := res.score(model, recon, test.Features, test.Target); err != nil {
		return nil, err
	}

	deqMeta := meta
	deqMeta.R2 = &res.R2Dequantized
	g = errgroup.Group{}
	g.Go(func() error { return store.SaveModel(ctx, artifact.FileDequantized, recon, deqMeta) })
	if cfg.RunDatabase().Enabled() {
		g.Go(func() error { return record(ctx, cfg, res) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("quantization complete",
		"worst_error", metrics.Worst(),
		"bound", quant.ErrorBound(res.Scale),
		"r2", res.R2Original,
		"r2_dequantized", res.R2Dequantized,
		"elapsed", time.Since(start),
	)
	return res, nil
}

func (r *Result) score(orig, recon *linreg.Model, X [][]float64, y []float64) error {
	po, err := orig.Predict(X)
	if err != nil {
		return err
	}
	pd, err := recon.Predict(X)
	if err != nil {
		return err
	}
	if r.R2Original, err = linreg.R2(y, po); err != nil {
		return err
	}
	if r.R2Dequantized, err = linreg.R2(y, pd); err != nil {
		return err
	}
	for i := range po {
		r.MaxPredictionDelta = math.Max(r.MaxPredictionDelta, math.Abs(po[i]-pd[i]))
	}
	return nil
}

func record(ctx context.Context, cfg config.Config, res *Result) error {
	reg, err := registry.Open(cfg.RunDatabase())
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	metrics, err := report.MarshalMetrics(res.Metrics, res.Scale)
	if err != nil {
		return fmt.Errorf("pipeline: encode metrics: %w", err)
	}
	return reg.Record(ctx, &registry.Run{
		ID:            res.RunID,
		Scheme:        res.Scheme,
		Scale:         res.Scale,
		Clipped:       res.Clipped,
		WorstError:    res.Metrics.Worst(),
		R2Original:    res.R2Original,
		R2Dequantized: res.R2Dequantized,
		MetricsJSON:   metrics,
		ArtifactsDir:  cfg.ArtifactsDir,
	})
}

func paramWorst(m quant.ErrorMetrics, name string) float64 {
	if v, ok := m.Vectors[name]; ok {
		return v.Max
	}
	return m.Scalars[name]
}
