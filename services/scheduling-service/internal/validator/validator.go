// Package validator decides whether a requested booking or reschedule is
// legal. Checks run in a fixed order and the first failure is returned.
// Nothing here writes.
package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/apperr"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
)

type UserLookup interface {
	FindByID(ctx context.Context, id int64) (model.User, bool, error)
}

// Coverage reports whether a slot lies inside the professional's working hours.
type Coverage interface {
	Covers(ctx context.Context, professionalID int64, date timerules.Date, at timerules.Clock) (bool, error)
}

type Conflicts interface {
	HasConflict(ctx context.Context, patientID, professionalID int64, date timerules.Date) (bool, error)
	IsProfessionalAvailableFor(ctx context.Context, appointmentID, professionalID int64, date timerules.Date, at timerules.Clock) (bool, error)
}

type BookingRequest struct {
	PatientID      int64
	ProfessionalID int64
	Date           timerules.Date
	Time           timerules.Clock
	Type           model.AppointmentType
}

type SlotValidator struct {
	users     UserLookup
	coverage  Coverage
	conflicts Conflicts
	loc       *time.Location
}

func New(users UserLookup, coverage Coverage, conflicts Conflicts, loc *time.Location) *SlotValidator {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotValidator{users: users, coverage: coverage, conflicts: conflicts, loc: loc}
}

func (v *SlotValidator) ValidateBooking(ctx context.Context, req BookingRequest, now time.Time) error {
	if err := v.requireUser(ctx, "patient", req.PatientID, ""); err != nil {
		return err
	}
	if err := v.requireUser(ctx, "professional", req.ProfessionalID, model.RoleHealthProfessional); err != nil {
		return err
	}
	if !req.Type.Valid() {
		return apperr.Validation("type", apperr.ReasonInvalidType, fmt.Sprintf("unknown appointment type %q", req.Type))
	}
	if err := v.checkCalendar(req.Date, req.Time, now); err != nil {
		return err
	}

	covered, err := v.coverage.Covers(ctx, req.ProfessionalID, req.Date, req.Time)
	if err != nil {
		return err
	}
	if !covered {
		return apperr.NoAvailability()
	}

	if hours := req.Type.BookingNoticeHours(); hours > 0 &&
		!timerules.IsWithinMinimumHours(req.Date, req.Time, hours, now, v.loc) {
		return apperr.InsufficientNotice(hours)
	}
	if !timerules.IsWithinDayRange(req.Date, timerules.BookingHorizonDays, timerules.DateOf(now, v.loc)) {
		return apperr.TooFarAhead(timerules.BookingHorizonDays)
	}

	dup, err := v.conflicts.HasConflict(ctx, req.PatientID, req.ProfessionalID, req.Date)
	if err != nil {
		return err
	}
	if dup {
		return apperr.DuplicateAppointment()
	}
	return nil
}

// ValidateReschedule checks a new slot for an existing appointment. The
// appointment's own current slot does not count as taken.
func (v *SlotValidator) ValidateReschedule(ctx context.Context, appt model.Appointment, date timerules.Date, at timerules.Clock, now time.Time) error {
	if err := v.checkCalendar(date, at, now); err != nil {
		return err
	}
	if !timerules.IsWithinDayRange(date, timerules.BookingHorizonDays, timerules.DateOf(now, v.loc)) {
		return apperr.TooFarAhead(timerules.BookingHorizonDays)
	}
	hours := appt.Type.ReschedulingNoticeHours()
	if !timerules.IsWithinMinimumHours(date, at, hours, now, v.loc) {
		return apperr.InsufficientNotice(hours)
	}

	free, err := v.conflicts.IsProfessionalAvailableFor(ctx, appt.ID, appt.ProfessionalID, date, at)
	if err != nil {
		return err
	}
	if !free {
		return apperr.SlotTaken()
	}
	return nil
}

func (v *SlotValidator) checkCalendar(date timerules.Date, at timerules.Clock, now time.Time) error {
	if !timerules.IsNotSunday(date) {
		return apperr.InvalidDate("no Sunday bookings")
	}
	if !timerules.IsValid50MinuteSlot(at) {
		return apperr.InvalidTime("must align to 50-minute grid")
	}
	if !timerules.IsFuture(date, at, now, v.loc) {
		return apperr.InvalidDate("must be future")
	}
	return nil
}

func (v *SlotValidator) requireUser(ctx context.Context, what string, id int64, role model.Role) error {
	u, ok, err := v.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	if !ok || (role != "" && u.Role != role) {
		return apperr.NotFound(what, id)
	}
	return nil
}
