package repository

import (
	"context"
	"database/sql"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/config"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

// Remote is the persistence surface the operations layer reconciles against.
// Any error is treated uniformly as "retry later": the optimistic local
// update stands and the action lands on the offline queue.
type Remote interface {
	List(ctx context.Context) (*Snapshot, error)
	CreateShift(ctx context.Context, shift *domain.Shift) error
	ApplyToShift(ctx context.Context, application *domain.Application) error
	ApplyToSeries(ctx context.Context, applications []domain.Application) error
	AssignShift(ctx context.Context, shiftID, userID string) error
	CancelShift(ctx context.Context, shiftID string) error
	UpdateShift(ctx context.Context, shift *domain.Shift) error
	WithdrawApplication(ctx context.Context, applicationID string) error
}

// Snapshot is the remote's view of the scheduling state.
type Snapshot struct {
	Shifts       []*domain.Shift       `json:"shifts"`
	Applications []*domain.Application `json:"applications"`
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

var _ Remote = (*Repository)(nil)
