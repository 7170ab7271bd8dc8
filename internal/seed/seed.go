package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/repository"
)

// serviceTemplates is the standard swaxi weekly service pattern. The night
// service crosses midnight on purpose.
var serviceTemplates = []domain.ShiftTemplate{
	{
		Name:      "Frueh",
		ShiftType: "early",
		Start:     "06:00",
		End:       "14:00",
		Weekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		WorkLocation:   domain.LocationDepot,
		RequiresOnSite: true,
	},
	{
		Name:      "Tag",
		ShiftType: "day",
		Start:     "11:00",
		End:       "17:45",
		Weekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday,
		},
		WorkLocation: domain.LocationHome,
	},
	{
		Name:      "Abend",
		ShiftType: "evening",
		Start:     "17:45",
		End:       "21:00",
		Weekdays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		WorkLocation: domain.LocationHome,
	},
	{
		Name:      "Nacht",
		ShiftType: "night",
		Start:     "21:15",
		End:       "05:30",
		Weekdays: []time.Weekday{
			time.Friday, time.Saturday,
		},
		WorkLocation:   domain.LocationDepot,
		RequiresOnSite: true,
	},
}

// SeedServiceTemplates inserts the standard weekly service pattern.
func SeedServiceTemplates(ctx context.Context, r *repository.Repository) {
	cnt := 0
	for i := range serviceTemplates {
		tpl := serviceTemplates[i]
		if err := r.CreateShiftTemplate(ctx, &tpl); err != nil {
			slog.Error("failed to insert service template", "name", tpl.Name, "error", err)
			continue
		}
		cnt++
	}

	slog.Info("service templates inserted", "count", cnt)
}
