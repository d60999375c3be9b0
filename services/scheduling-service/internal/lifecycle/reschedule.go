package lifecycle

import (
	"context"
	"errors"
	"slices"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/apperr"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/storage"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"go.opentelemetry.io/otel/attribute"
)

var reschedulable = []model.Status{
	model.StatusScheduled,
	model.StatusConfirmed,
	model.StatusRescheduled,
}

type RescheduleRequest struct {
	AppointmentID int64
	ActorID       int64
	Date          timerules.Date
	Time          timerules.Clock
}

type RescheduleResult struct {
	Appointment model.Appointment
	Fee         model.FeeDecision
}

// Reschedule moves an appointment to a new slot in place. The fee is
// decided against the original start, before the move is stored.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (RescheduleResult, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.reschedule")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("appointment.id", req.AppointmentID),
		attribute.String("appointment.new_date", req.Date.String()),
		attribute.String("appointment.new_time", req.Time.String()),
	)

	appt, err := s.get(ctx, req.AppointmentID)
	if err != nil {
		return RescheduleResult{}, err
	}
	actor, err := s.actor(ctx, req.ActorID)
	if err != nil {
		return RescheduleResult{}, err
	}
	if err := s.authorizeReschedule(actor, appt); err != nil {
		s.reject("reschedule", err)
		return RescheduleResult{}, err
	}
	if !slices.Contains(reschedulable, appt.Status) {
		var err error
		if appt.Status.IsFinal() {
			err = apperr.AlreadyFinalized(string(appt.Status))
		} else {
			err = apperr.InvalidStatusTransition(string(appt.Status), string(model.StatusRescheduled))
		}
		s.reject("reschedule", err)
		return RescheduleResult{}, err
	}

	now := s.now()
	if err := s.validator.ValidateReschedule(ctx, appt, req.Date, req.Time, now); err != nil {
		s.reject("reschedule", err)
		return RescheduleResult{}, err
	}

	var fee model.FeeDecision
	if s.reschedule != nil {
		fee = s.reschedule.Evaluate(appt, now)
	}

	moved, err := s.store.Reschedule(ctx, appt.ID, reschedulable, req.Date, req.Time)
	switch {
	case errors.Is(err, storage.ErrStatusChanged):
		current, gerr := s.get(ctx, appt.ID)
		if gerr != nil {
			return RescheduleResult{}, gerr
		}
		err := apperr.InvalidStatusTransition(string(current.Status), string(model.StatusRescheduled))
		s.reject("reschedule", err)
		return RescheduleResult{}, err
	case err != nil:
		err = writeError(err)
		s.reject("reschedule", err)
		span.RecordError(err)
		return RescheduleResult{}, err
	}

	if fee.Applies {
		if err := s.fees.ChargeFee(ctx, moved, fee); err != nil {
			s.logger.WarnContext(ctx, "reschedule fee not collected",
				"appointment_id", moved.ID,
				"amount", fee.Amount.StringFixed(2),
				"err", err,
			)
		}
	}

	s.metrics.ObserveOperation("reschedule", "ok")
	s.logger.InfoContext(ctx, "appointment rescheduled",
		"appointment_id", moved.ID,
		"from_date", appt.Date.String(),
		"from_time", appt.Time.String(),
		"to_date", moved.Date.String(),
		"to_time", moved.Time.String(),
		"fee_applies", fee.Applies,
	)
	s.emit(ctx, Event{Kind: EventRescheduled, Appointment: moved, Previous: &appt, Fee: &fee})
	return RescheduleResult{Appointment: moved, Fee: fee}, nil
}

func (s *Service) authorizeReschedule(actor model.User, appt model.Appointment) error {
	switch actor.Role {
	case model.RolePatient:
		if actor.ID == appt.PatientID {
			return nil
		}
		return apperr.Forbidden("patients may only reschedule their own appointments")
	case model.RoleHealthProfessional:
		return apperr.Forbidden("health professionals cannot reschedule appointments")
	}
	if !s.authorizer.CanReschedule(actor, appt) {
		return apperr.Forbidden("not allowed to reschedule appointments")
	}
	return nil
}
