package store

import (
	"context"
	"time"

	"github.com/nebulascloud/jaci/internal/models"
)

// Exchange is one recorded assistant question/response pair.
type Exchange struct {
	ID         string
	Question   string
	Response   string
	ResponseID string
	Provider   string
	CreatedAt  time.Time
}

// RunListFilter specifies filters for listing pipeline runs.
type RunListFilter struct {
	Stage  models.Stage
	Status models.RunStatus
	Limit  int
}

// Store defines the persistence interface for jaci.
type Store interface {
	// Pipeline runs
	CreateRun(ctx context.Context, run *models.PipelineRun) error
	GetRun(ctx context.Context, id string) (*models.PipelineRun, error)
	ListRuns(ctx context.Context, filter RunListFilter) ([]*models.PipelineRun, error)
	PruneRuns(ctx context.Context, keep int) (int64, error)

	// Assistant exchanges
	CreateExchange(ctx context.Context, ex *Exchange) error
	ListExchanges(ctx context.Context, limit int) ([]*Exchange, error)
	ClearExchanges(ctx context.Context) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
