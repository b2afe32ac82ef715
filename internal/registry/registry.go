// Package registry records quantization runs in a SQL database.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/samcharles93/qlinear/internal/config"
)

var ErrNotFound = errors.New("registry: run not found")

// Run is one quantization run. MetricsJSON holds the per-parameter error
// metrics as rendered by the report package.
type Run struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt     time.Time `gorm:"index;not null" json:"created_at"`
	Scheme        string    `gorm:"not null" json:"scheme"`
	Scale         float64   `gorm:"not null" json:"scale"`
	Clipped       int       `gorm:"not null" json:"clipped"`
	WorstError    float64   `json:"worst_error"`
	R2Original    float64   `json:"r2_original"`
	R2Dequantized float64   `json:"r2_dequantized"`
	MetricsJSON   string    `gorm:"type:text" json:"metrics"`
	ArtifactsDir  string    `json:"artifacts_dir"`
}

func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Registry wraps the database handle.
type Registry struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
// Postgres takes precedence over SQLite; replicas serve reads.
func Open(cfg config.Database) (*Registry, error) {
	var primary gorm.Dialector
	switch {
	case cfg.Postgres != "":
		primary = postgres.Open(cfg.Postgres)
	case cfg.SQLite != "":
		if dir := filepath.Dir(cfg.SQLite); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("registry: %w", err)
			}
		}
		primary = sqlite.Open(cfg.SQLite)
	default:
		return nil, errors.New("registry: no database configured")
	}

	db, err := gorm.Open(primary, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("registry: connect: %w", err)
	}

	if len(cfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.Replicas))
		for _, dsn := range cfg.Replicas {
			replicas = append(replicas, postgres.Open(dsn))
		}
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("registry: register replicas: %w", err)
		}
	}

	if err := db.Clauses(dbresolver.Write).AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("registry: migrate: %w", err)
	}
	return &Registry{db: db}, nil
}

// Record inserts a run.
func (r *Registry) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return errors.New("registry: run id is required")
	}
	if err := r.db.WithContext(ctx).Clauses(dbresolver.Write).Create(run).Error; err != nil {
		return fmt.Errorf("registry: record %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs first. limit <= 0 returns all runs.
func (r *Registry) List(ctx context.Context, limit int) ([]Run, error) {
	q := r.db.WithContext(ctx).Clauses(dbresolver.Read).Order("created_at DESC").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given id.
func (r *Registry) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := r.db.WithContext(ctx).Clauses(dbresolver.Read).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: get %s: %w", id, err)
	}
	return &run, nil
}

// Close releases the underlying connection pool.
func (r *Registry) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
