package repository

import (
	"context"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

func (r *Repository) listApplications(ctx context.Context) ([]*domain.Application, error) {
	query := `
		SELECT id, shift_id, user_id, status, created_at
		FROM applications
		ORDER BY created_at, id
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := make([]*domain.Application, 0)
	for rows.Next() {
		app := &domain.Application{}
		dst := []any{&app.ID, &app.ShiftID, &app.UserID, &app.Status, &app.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		applications = append(applications, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return applications, nil
}

func (r *Repository) ApplyToShift(ctx context.Context, application *domain.Application) error {
	query := `
		INSERT INTO applications (id, shift_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{application.ID, application.ShiftID, application.UserID, application.Status, application.CreatedAt}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) ApplyToSeries(ctx context.Context, applications []domain.Application) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO applications (id, shift_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	for i := range applications {
		app := &applications[i]
		args := []any{app.ID, app.ShiftID, app.UserID, app.Status, app.CreatedAt}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) WithdrawApplication(ctx context.Context, applicationID string) error {
	query := `
		UPDATE applications
		SET status = $1
		WHERE id = $2
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, domain.ApplicationWithdrawn, applicationID); err != nil {
		return err
	}

	return nil
}
