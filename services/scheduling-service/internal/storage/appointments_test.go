package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

var appointmentCols = []string{
	"id", "patient_id", "professional_id", "appointment_date", "appointment_time",
	"type", "status", "payment_status", "price", "cancellation_reason", "cancelled_by",
	"created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestAppointmentGetScansRow(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	created := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM appointments WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(appointmentCols).AddRow(
			int64(5), int64(1), int64(2), time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), "10:50:00",
			"presencial", "confirmed", "paid", strPtr("120.00"), (*string)(nil), (*int64)(nil),
			created, created,
		))

	a, err := repo.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.Date != timerules.NewDate(2026, time.January, 12) || a.Time != timerules.NewClock(10, 50) {
		t.Fatalf("unexpected slot %s %s", a.Date, a.Time)
	}
	if a.Status != model.StatusConfirmed || a.PaymentStatus != model.PaymentPaid {
		t.Fatalf("unexpected status %s/%s", a.Status, a.PaymentStatus)
	}
	if !a.Price.Valid || !a.Price.Decimal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("unexpected price %+v", a.Price)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppointmentGetNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT .* FROM appointments WHERE id").
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	_, err := NewAppointmentRepository(mock).Get(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentCreateMapsUniqueViolations(t *testing.T) {
	cases := map[string]error{
		constraintPatientDay:       ErrDuplicateBooking,
		constraintProfessionalSlot: ErrSlotTaken,
	}
	for constraint, want := range cases {
		mock := newMock(t)
		mock.ExpectQuery("INSERT INTO appointments").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraint})

		_, err := NewAppointmentRepository(mock).Create(context.Background(), model.Appointment{
			PatientID:      1,
			ProfessionalID: 2,
			Date:           timerules.NewDate(2026, time.January, 12),
			Time:           timerules.NewClock(10, 0),
			Type:           model.TypeOnline,
			Status:         model.StatusScheduled,
			PaymentStatus:  model.PaymentPending,
		})
		if !errors.Is(err, want) {
			t.Fatalf("%s: expected %v, got %v", constraint, want, err)
		}
	}
}

func TestUpdateStatusLostRace(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(int64(5), "confirmed", []string{"scheduled", "rescheduled"}).
		WillReturnRows(pgxmock.NewRows(appointmentCols))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := NewAppointmentRepository(mock).UpdateStatus(context.Background(), 5,
		[]model.Status{model.StatusScheduled, model.StatusRescheduled}, model.StatusConfirmed)
	if !errors.Is(err, ErrStatusChanged) {
		t.Fatalf("expected ErrStatusChanged, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOccupiedSlots(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT appointment_time::text FROM appointments").
		WithArgs(int64(2), time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(pgxmock.NewRows([]string{"appointment_time"}).AddRow("10:00:00").AddRow("11:40:00"))

	got, err := NewAppointmentRepository(mock).OccupiedSlots(context.Background(), 2, timerules.NewDate(2026, time.January, 12))
	if err != nil {
		t.Fatalf("OccupiedSlots: %v", err)
	}
	if len(got) != 2 || got[1] != timerules.NewClock(11, 40) {
		t.Fatalf("unexpected slots %v", got)
	}
}

func TestSlotOccupantFree(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT id FROM appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	id, err := NewAppointmentRepository(mock).SlotOccupant(context.Background(), 2, timerules.NewDate(2026, time.January, 12), timerules.NewClock(10, 0))
	if err != nil || id != 0 {
		t.Fatalf("expected free slot, got %d %v", id, err)
	}
}

func TestUserFindByIDMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT id, name, email, role, is_active FROM users").
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "is_active"}))

	_, ok, err := NewUserRepository(mock).FindByID(context.Background(), 9)
	if err != nil || ok {
		t.Fatalf("expected missing user, got ok=%v err=%v", ok, err)
	}
}

func TestTemplatesScan(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM availability_templates").
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "professional_id", "day_of_week", "start_time", "end_time", "is_active"}).
			AddRow(int64(1), int64(2), 1, "09:00:00", "12:00:00", true))

	got, err := NewTemplateRepository(mock).FindByProfessionalID(context.Background(), 2)
	if err != nil {
		t.Fatalf("FindByProfessionalID: %v", err)
	}
	if len(got) != 1 || got[0].DayOfWeek != time.Monday || got[0].End != timerules.NewClock(12, 0) {
		t.Fatalf("unexpected templates %+v", got)
	}
}
