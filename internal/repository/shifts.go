package repository

import (
	"context"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

func (r *Repository) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) List(ctx context.Context) (*Snapshot, error) {
	shifts, err := r.listShifts(ctx)
	if err != nil {
		return nil, err
	}
	applications, err := r.listApplications(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Shifts: shifts, Applications: applications}, nil
}

func (r *Repository) listShifts(ctx context.Context) ([]*domain.Shift, error) {
	query := `
		SELECT id, shift_date, shift_type, start_time, end_time, status, assigned_to, work_location, requires_on_site, created_at, version
		FROM shifts
		ORDER BY shift_date, start_time, id
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift := &domain.Shift{}
		dst := []any{&shift.ID, &shift.Date, &shift.Type, &shift.Start, &shift.End, &shift.Status, &shift.AssignedTo, &shift.WorkLocation, &shift.RequiresOnSite, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (id, shift_date, shift_type, start_time, end_time, status, assigned_to, work_location, requires_on_site)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	// The natural id makes a replayed create idempotent: a row that already
	// exists is the same duty period.
	args := []any{shift.ID, shift.Date, shift.Type, shift.Start, shift.End, shift.Status, shift.AssignedTo, shift.WorkLocation, shift.RequiresOnSite}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) AssignShift(ctx context.Context, shiftID, userID string) error {
	query := `
		UPDATE shifts
		SET status = $1, assigned_to = $2, version = version + 1
		WHERE id = $3
		RETURNING version
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	var version int32
	if err := r.dbpool.QueryRowContext(ctx, query, domain.ShiftAssigned, userID, shiftID).Scan(&version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CancelShift(ctx context.Context, shiftID string) error {
	query := `
		UPDATE shifts
		SET status = $1, version = version + 1
		WHERE id = $2
		RETURNING version
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	var version int32
	if err := r.dbpool.QueryRowContext(ctx, query, domain.ShiftCancelled, shiftID).Scan(&version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET status = $1, assigned_to = $2, work_location = $3, requires_on_site = $4, version = version + 1
		WHERE id = $5
		RETURNING version
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{shift.Status, shift.AssignedTo, shift.WorkLocation, shift.RequiresOnSite, shift.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.Version); err != nil {
		return err
	}

	return nil
}
