package storage

import (
	"context"
	"time"

	"github.com/clinicops/clinic-portal/libs/db"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
)

type TemplateRepository struct {
	db db.DBTX
}

func NewTemplateRepository(d db.DBTX) *TemplateRepository {
	return &TemplateRepository{db: d}
}

func (r *TemplateRepository) FindByProfessionalID(ctx context.Context, professionalID int64) ([]model.AvailabilityTemplate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, professional_id, day_of_week, start_time::text, end_time::text, is_active
		FROM availability_templates
		WHERE professional_id = $1
		ORDER BY day_of_week, start_time
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AvailabilityTemplate
	for rows.Next() {
		var (
			t          model.AvailabilityTemplate
			day        int
			start, end string
		)
		if err := rows.Scan(&t.ID, &t.ProfessionalID, &day, &start, &end, &t.IsActive); err != nil {
			return nil, err
		}
		t.DayOfWeek = time.Weekday(day)
		if t.Start, err = timerules.ParseClock(start); err != nil {
			return nil, err
		}
		if t.End, err = timerules.ParseClock(end); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
