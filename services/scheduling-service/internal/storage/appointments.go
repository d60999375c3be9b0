package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicops/clinic-portal/libs/db"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// activeStatusFilter excludes the two cancelled states; it must match the
// predicate of the partial unique indexes.
const activeStatusFilter = `status NOT IN ('cancelled_by_patient', 'cancelled_by_clinic')`

const appointmentColumns = `
	id, patient_id, professional_id, appointment_date, appointment_time::text,
	type, status, payment_status, price::text, cancellation_reason, cancelled_by,
	created_at, updated_at`

type AppointmentRepository struct {
	db db.DBTX
}

func NewAppointmentRepository(d db.DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: d}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (model.Appointment, error) {
	var (
		a       model.Appointment
		date    time.Time
		clock   string
		typ     string
		status  string
		payment string
		price   *string
	)
	err := row.Scan(&a.ID, &a.PatientID, &a.ProfessionalID, &date, &clock,
		&typ, &status, &payment, &price, &a.CancellationReason, &a.CancelledBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, classify(err)
	}
	a.Date = timerules.DateOf(date, time.UTC)
	if a.Time, err = timerules.ParseClock(clock); err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	a.Type = model.AppointmentType(typ)
	a.Status = model.Status(status)
	a.PaymentStatus = model.PaymentStatus(payment)
	if price != nil {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return model.Appointment{}, fmt.Errorf("appointment %d price: %w", a.ID, err)
		}
		a.Price = decimal.NewNullDecimal(d)
	}
	return a, nil
}

func priceArg(p decimal.NullDecimal) *string {
	if !p.Valid {
		return nil
	}
	s := p.Decimal.StringFixed(2)
	return &s
}

func statusArgs(from []model.Status) []string {
	out := make([]string, len(from))
	for i, s := range from {
		out[i] = string(s)
	}
	return out
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (model.Appointment, error) {
	return scanAppointment(r.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
}

func (r *AppointmentRepository) Create(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	return scanAppointment(r.db.QueryRow(ctx, `
		INSERT INTO appointments
			(patient_id, professional_id, appointment_date, appointment_time, type, status, payment_status, price)
		VALUES ($1, $2, $3, $4::time, $5, $6, $7, $8::numeric)
		RETURNING `+appointmentColumns,
		a.PatientID, a.ProfessionalID, a.Date.Midnight(), a.Time.String(),
		string(a.Type), string(a.Status), string(a.PaymentStatus), priceArg(a.Price)))
}

// UpdateStatus moves the appointment to status to if its current status is
// one of from.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, from []model.Status, to model.Status) (model.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+appointmentColumns,
		id, string(to), statusArgs(from)))
	return a, r.casError(ctx, id, err)
}

func (r *AppointmentRepository) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET payment_status = $2, updated_at = now() WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) Cancel(ctx context.Context, id int64, from []model.Status, to model.Status, reason string, cancelledBy int64) (model.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, cancellation_reason = NULLIF($3, ''), cancelled_by = $4, updated_at = now()
		WHERE id = $1 AND status = ANY($5)
		RETURNING `+appointmentColumns,
		id, string(to), reason, cancelledBy, statusArgs(from)))
	return a, r.casError(ctx, id, err)
}

// Reschedule moves the appointment in place and marks it rescheduled.
func (r *AppointmentRepository) Reschedule(ctx context.Context, id int64, from []model.Status, date timerules.Date, at timerules.Clock) (model.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		UPDATE appointments
		SET appointment_date = $2, appointment_time = $3::time, status = $4, updated_at = now()
		WHERE id = $1 AND status = ANY($5)
		RETURNING `+appointmentColumns,
		id, date.Midnight(), at.String(), string(model.StatusRescheduled), statusArgs(from)))
	return a, r.casError(ctx, id, err)
}

// casError tells a missing row apart from a lost status race.
func (r *AppointmentRepository) casError(ctx context.Context, id int64, err error) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var exists bool
	if qerr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); qerr != nil {
		return qerr
	}
	if exists {
		return ErrStatusChanged
	}
	return ErrNotFound
}

func (r *AppointmentRepository) HasActiveAppointment(ctx context.Context, patientID, professionalID int64, date timerules.Date) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND professional_id = $2 AND appointment_date = $3 AND `+activeStatusFilter+`
		)`, patientID, professionalID, date.Midnight()).Scan(&exists)
	return exists, err
}

func (r *AppointmentRepository) SlotOccupant(ctx context.Context, professionalID int64, date timerules.Date, at timerules.Clock) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		SELECT id FROM appointments
		WHERE professional_id = $1 AND appointment_date = $2 AND appointment_time = $3::time AND `+activeStatusFilter+`
		LIMIT 1`, professionalID, date.Midnight(), at.String()).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (r *AppointmentRepository) OccupiedSlots(ctx context.Context, professionalID int64, date timerules.Date) ([]timerules.Clock, error) {
	rows, err := r.db.Query(ctx, `
		SELECT appointment_time::text FROM appointments
		WHERE professional_id = $1 AND appointment_date = $2 AND `+activeStatusFilter+`
		ORDER BY appointment_time`, professionalID, date.Midnight())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timerules.Clock
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		c, err := timerules.ParseClock(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
