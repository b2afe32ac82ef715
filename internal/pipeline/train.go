package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/config"
	"github.com/samcharles93/qlinear/internal/linreg"
	"github.com/samcharles93/qlinear/internal/logger"
)

type TrainResult struct {
	RunID     string
	Model     *linreg.Model
	R2        float64
	TrainSize int
	TestSize  int
	Path      string
}

// Train fits a model on the training split, scores it on the held-out
// split and saves it as artifact.FileModel.
func Train(ctx context.Context, cfg config.Config) (*TrainResult, error) {
	runID := uuid.NewString()
	log := logger.Stage(ctx, "train").With(logger.KeyRunID, runID)
	start := time.Now()

	train, test, err := split(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model, err := linreg.Fit(train.Features, train.Target)
	if err != nil {
		return nil, err
	}
	model.Features = train.FeatureNames

	r2, err := model.Score(test.Features, test.Target)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	meta := artifact.Meta{RunID: runID, Target: train.TargetName, R2: &r2}
	if err := store.SaveModel(ctx, artifact.FileModel, model, meta); err != nil {
		return nil, err
	}

	path := store.Path(artifact.FileModel)
	log.Info("model trained",
		logger.KeySamples, train.Len(),
		logger.KeyFeatures, len(model.Coefficients),
		"r2", r2,
		logger.KeyPath, path,
		"elapsed", time.Since(start),
	)
	return &TrainResult{
		RunID:     runID,
		Model:     model,
		R2:        r2,
		TrainSize: train.Len(),
		TestSize:  test.Len(),
		Path:      path,
	}, nil
}
