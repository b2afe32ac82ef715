package api

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/linreg"
)

func TestCachedModelProviderReusesAndReloads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, true)
	p := NewCachedModelProvider(store)

	first, err := p.Model(ctx, "")
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	second, err := p.Model(ctx, "original")
	if err != nil {
		t.Fatalf("load model again: %v", err)
	}
	if first != second {
		t.Fatal("expected cached model to be reused")
	}

	// A rewrite forces a reload.
	bigger := &linreg.Model{Coefficients: []float64{1, 2, 3, 4}, Intercept: 1}
	if err := store.SaveModel(ctx, artifact.FileModel, bigger, artifact.Meta{RunID: "next"}); err != nil {
		t.Fatalf("save model: %v", err)
	}
	third, err := p.Model(ctx, "original")
	if err != nil {
		t.Fatalf("reload model: %v", err)
	}
	if len(third.Coefficients) != 4 {
		t.Fatalf("expected reloaded model, got %d coefficients", len(third.Coefficients))
	}
}

func TestCachedModelProviderReloadsSameSizeSameMtime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, true)
	p := NewCachedModelProvider(store)

	first, err := p.Model(ctx, "original")
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	path := store.Path(artifact.FileModel)
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	replaced := &linreg.Model{Coefficients: []float64{7, 8, 9}, Intercept: 4, Features: first.Features}
	if err := store.SaveModel(ctx, artifact.FileModel, replaced, artifact.Meta{}); err != nil {
		t.Fatalf("save model: %v", err)
	}
	if err := os.Chtimes(path, before.ModTime(), before.ModTime()); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		t.Fatalf("rewrite changed size or mtime: %d/%v -> %d/%v", before.Size(), before.ModTime(), after.Size(), after.ModTime())
	}

	got, err := p.Model(ctx, "original")
	if err != nil {
		t.Fatalf("reload model: %v", err)
	}
	if got == first || got.Intercept != 4 {
		t.Fatalf("served stale model: intercept %v", got.Intercept)
	}
}

func TestCachedModelProviderErrors(t *testing.T) {
	t.Parallel()

	p := NewCachedModelProvider(newTestStore(t, false))
	if _, err := p.Model(context.Background(), "dequantized"); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := p.Model(context.Background(), "int4"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
