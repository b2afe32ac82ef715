package api

import (
	"context"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/linreg"
	"github.com/samcharles93/qlinear/internal/pipeline"
)

const maxCachedModels = 4

type ModelProvider interface {
	Model(ctx context.Context, which string) (*linreg.Model, error)
}

// CachedModelProvider loads models from an artifact store and keeps them
// until the backing file changes on disk. The store replaces artifacts by
// renaming a new file into place, so a changed file is a different inode
// even when its size and mtime match.
type CachedModelProvider struct {
	store *artifact.Store
	cache *lru.Cache[string, modelEntry]
}

type modelEntry struct {
	model *linreg.Model
	info  os.FileInfo
}

func (e modelEntry) current(st os.FileInfo) bool {
	return os.SameFile(e.info, st) && e.info.ModTime().Equal(st.ModTime()) && e.info.Size() == st.Size()
}

func NewCachedModelProvider(store *artifact.Store) *CachedModelProvider {
	cache, _ := lru.New[string, modelEntry](maxCachedModels)
	return &CachedModelProvider{store: store, cache: cache}
}

func (p *CachedModelProvider) Model(ctx context.Context, which string) (*linreg.Model, error) {
	if which == "" {
		which = pipeline.WhichOriginal
	}
	name, err := fileFor(which)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(p.store.Path(name))
	if err != nil {
		p.cache.Remove(which)
		// the store produces the not-found error
		return pipeline.LoadPredictor(ctx, p.store, which)
	}

	if e, ok := p.cache.Get(which); ok && e.current(st) {
		return e.model, nil
	}

	m, err := pipeline.LoadPredictor(ctx, p.store, which)
	if err != nil {
		return nil, err
	}
	p.cache.Add(which, modelEntry{model: m, info: st})
	return m, nil
}

func fileFor(which string) (string, error) {
	switch which {
	case pipeline.WhichOriginal:
		return artifact.FileModel, nil
	case pipeline.WhichDequantized:
		return artifact.FileDequantized, nil
	default:
		return "", newInvalidRequest("unknown model %q (want %s or %s)", which, pipeline.WhichOriginal, pipeline.WhichDequantized)
	}
}
