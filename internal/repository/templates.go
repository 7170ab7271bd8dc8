package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

func (r *Repository) GetAllShiftTemplates(ctx context.Context) ([]*domain.ShiftTemplate, error) {
	query := `
		SELECT
			t.id,
			t.name,
			t.shift_type,
			t.start_time,
			t.end_time,
			t.work_location,
			t.requires_on_site,
			t.created_at,
			t.version,
			d.weekday
		FROM shift_templates t
		LEFT JOIN shift_template_days d ON t.id = d.template_id
		ORDER BY t.id, d.weekday
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templatesMap := make(map[int64]*domain.ShiftTemplate)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			ID             int64
			Name           string
			ShiftType      string
			StartTime      string
			EndTime        string
			WorkLocation   string
			RequiresOnSite bool
			CreatedAt      time.Time
			Version        int32
			Weekday        *int32
		}

		dst := []any{&row.ID, &row.Name, &row.ShiftType, &row.StartTime, &row.EndTime, &row.WorkLocation, &row.RequiresOnSite, &row.CreatedAt, &row.Version, &row.Weekday}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		tpl, exists := templatesMap[row.ID]
		if !exists {
			tpl = &domain.ShiftTemplate{
				ID:             row.ID,
				Name:           row.Name,
				ShiftType:      row.ShiftType,
				Start:          row.StartTime,
				End:            row.EndTime,
				WorkLocation:   domain.WorkLocation(row.WorkLocation),
				RequiresOnSite: row.RequiresOnSite,
				Weekdays:       make([]time.Weekday, 0),
				CreatedAt:      row.CreatedAt,
				Version:        row.Version,
			}
			templatesMap[row.ID] = tpl
			order = append(order, row.ID)
		}

		// A template with no day rows simply never expands.
		if row.Weekday == nil {
			continue
		}
		tpl.Weekdays = append(tpl.Weekdays, time.Weekday(*row.Weekday))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	templates := make([]*domain.ShiftTemplate, 0, len(order))
	for _, id := range order {
		templates = append(templates, templatesMap[id])
	}

	return templates, nil
}

func (r *Repository) GetShiftTemplate(ctx context.Context, id int64) (*domain.ShiftTemplate, error) {
	templates, err := r.GetAllShiftTemplates(ctx)
	if err != nil {
		return nil, err
	}
	for _, tpl := range templates {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "shift template", ID: strconv.FormatInt(id, 10)}
}

func (r *Repository) CreateShiftTemplate(ctx context.Context, tpl *domain.ShiftTemplate) error {
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
		INSERT INTO shift_templates (name, shift_type, start_time, end_time, work_location, requires_on_site)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`
	args := []any{tpl.Name, tpl.ShiftType, tpl.Start, tpl.End, tpl.WorkLocation, tpl.RequiresOnSite}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&tpl.ID, &tpl.CreatedAt, &tpl.Version); err != nil {
		return err
	}

	for _, day := range tpl.Weekdays {
		query = `
			INSERT INTO shift_template_days (template_id, weekday)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, tpl.ID, int32(day)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShiftTemplate(ctx context.Context, id int64) error {
	query := `
		DELETE FROM shift_templates WHERE id = $1
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
