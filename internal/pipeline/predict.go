package pipeline

import (
	"context"
	"fmt"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/config"
	"github.com/samcharles93/qlinear/internal/linreg"
	"github.com/samcharles93/qlinear/internal/logger"
)

// Which selects the model used for predictions.
const (
	WhichOriginal    = "original"
	WhichDequantized = "dequantized"
)

// DefaultPredictRows is the number of leading samples predicted when the
// caller does not ask for a specific count.
const DefaultPredictRows = 5

type Predictions struct {
	Which    string
	Features [][]float64
	Values   []float64
	Truth    []float64
}

// LoadPredictor loads the original or dequantized model from the store.
func LoadPredictor(ctx context.Context, store *artifact.Store, which string) (*linreg.Model, error) {
	switch which {
	case "", WhichOriginal:
		m, _, err := store.LoadModel(ctx, artifact.FileModel)
		return m, err
	case WhichDequantized:
		m, _, err := store.LoadModel(ctx, artifact.FileDequantized)
		return m, err
	default:
		return nil, fmt.Errorf("pipeline: unknown model %q (want %s or %s)", which, WhichOriginal, WhichDequantized)
	}
}

// Predict runs the selected model on the first rows samples of the
// configured data.
func Predict(ctx context.Context, cfg config.Config, which string, rows int) (*Predictions, error) {
	if which == "" {
		which = WhichOriginal
	}
	if rows <= 0 {
		rows = DefaultPredictRows
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	model, err := LoadPredictor(ctx, store, which)
	if err != nil {
		return nil, err
	}
	ds, err := LoadData(ctx, cfg)
	if err != nil {
		return nil, err
	}
	head := ds.Head(rows)
	values, err := model.Predict(head.Features)
	if err != nil {
		return nil, err
	}
	logger.Stage(ctx, "predict").Debug("predicted", "model", which, logger.KeySamples, len(values))
	return &Predictions{Which: which, Features: head.Features, Values: values, Truth: head.Target}, nil
}
