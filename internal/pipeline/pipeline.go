// Package pipeline wires the dataset, regression, quantization, artifact
// and registry packages into the train, quantize and predict workflows.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/config"
	"github.com/samcharles93/qlinear/internal/dataset"
	"github.com/samcharles93/qlinear/internal/logger"
)

// LoadData reads cfg.Data as CSV, or generates the synthetic housing set
// when no path is configured.
func LoadData(ctx context.Context, cfg config.Config) (*dataset.Dataset, error) {
	log := logger.Stage(ctx, "load")
	if cfg.Data == "" {
		ds, err := dataset.Synthetic(cfg.SyntheticSamples, cfg.Seed)
		if err != nil {
			return nil, err
		}
		log.Debug("generated synthetic data", logger.KeySamples, ds.Len(), logger.KeyFeatures, len(ds.FeatureNames))
		return ds, nil
	}

	f, err := os.Open(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := dataset.LoadCSV(f, cfg.TargetColumn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s: %w", cfg.Data, err)
	}
	log.Debug("loaded csv", logger.KeyPath, cfg.Data, logger.KeySamples, ds.Len(), logger.KeyFeatures, len(ds.FeatureNames))
	return ds, nil
}

// split loads the data and applies the configured deterministic split.
func split(ctx context.Context, cfg config.Config) (train, test *dataset.Dataset, err error) {
	ds, err := LoadData(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return dataset.Split(ds, cfg.TestSize, cfg.Seed)
}

func openStore(cfg config.Config) (*artifact.Store, error) {
	return artifact.New(cfg.ArtifactsDir, cfg.Compress)
}
