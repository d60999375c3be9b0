package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/apperr"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// cancellable lists every status a cancellation may start from.
var cancellable = []model.Status{
	model.StatusScheduled,
	model.StatusConfirmed,
	model.StatusWaiting,
	model.StatusInProgress,
	model.StatusRescheduled,
}

type CancelResult struct {
	Appointment model.Appointment
	Message     string
	// Refund is set when a refund was requested from the provider.
	Refund *model.RefundDecision
}

// Cancel marks the appointment cancelled on behalf of cancelledBy and
// refunds paid appointments. When the provider refund fails the
// cancellation stays stored and the error wraps ErrRefundFailed.
func (s *Service) Cancel(ctx context.Context, id int64, reason string, cancelledBy int64) (CancelResult, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.cancel")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", id), attribute.Int64("cancelled_by", cancelledBy))

	appt, err := s.get(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}
	if appt.Status.IsFinal() {
		err := apperr.AlreadyFinalized(string(appt.Status))
		s.reject("cancel", err)
		return CancelResult{}, err
	}
	actor, err := s.actor(ctx, cancelledBy)
	if err != nil {
		return CancelResult{}, err
	}
	if err := s.authorizeCancel(actor, appt); err != nil {
		s.reject("cancel", err)
		return CancelResult{}, err
	}

	to := model.StatusCancelledByClinic
	if cancelledBy == appt.PatientID {
		to = model.StatusCancelledByPatient
	}
	cancelled, err := s.store.Cancel(ctx, id, cancellable, to, strings.TrimSpace(reason), cancelledBy)
	if errors.Is(err, storage.ErrStatusChanged) {
		current, gerr := s.get(ctx, id)
		if gerr != nil {
			return CancelResult{}, gerr
		}
		err := apperr.InvalidStatusTransition(string(current.Status), string(to))
		if current.Status.IsFinal() {
			err = apperr.AlreadyFinalized(string(current.Status))
		}
		s.reject("cancel", err)
		return CancelResult{}, err
	}
	if err != nil {
		span.RecordError(err)
		return CancelResult{}, err
	}

	res := CancelResult{Appointment: cancelled, Message: "Appointment cancelled"}
	s.logger.InfoContext(ctx, "appointment cancelled",
		"appointment_id", id,
		"status", string(to),
		"cancelled_by", cancelledBy,
	)

	var refundErr error
	if cancelled.PaymentStatus == model.PaymentPaid && s.refunds != nil {
		res, refundErr = s.refund(ctx, res)
	}

	s.emit(ctx, Event{Kind: EventCancelled, Appointment: res.Appointment, Refund: res.Refund})
	if refundErr != nil {
		span.SetStatus(codes.Error, refundErr.Error())
		s.metrics.ObserveOperation("cancel", "refund_failed")
		return res, refundErr
	}
	s.metrics.ObserveOperation("cancel", "ok")
	return res, nil
}

func (s *Service) authorizeCancel(actor model.User, appt model.Appointment) error {
	if actor.Role == model.RolePatient {
		if actor.ID == appt.PatientID {
			return nil
		}
		return apperr.Forbidden("patients may only cancel their own appointments")
	}
	if !s.authorizer.CanCancel(actor, appt) {
		return apperr.Forbidden("not allowed to cancel appointments")
	}
	return nil
}

func (s *Service) refund(ctx context.Context, res CancelResult) (CancelResult, error) {
	appt := res.Appointment
	decision, err := s.refunds.Refund(ctx, appt)
	if err != nil {
		s.metrics.ObserveRefund("failed")
		s.logger.ErrorContext(ctx, "refund failed after cancellation",
			"appointment_id", appt.ID,
			"err", err,
		)
		res.Message = "Appointment cancelled but refund failed"
		return res, fmt.Errorf("%w: %w", ErrRefundFailed, err)
	}
	res.Refund = &decision
	if !decision.Eligible {
		s.metrics.ObserveRefund("ineligible")
		return res, nil
	}

	status := model.PaymentRefunded
	if decision.Percentage < 100 {
		status = model.PaymentPartiallyRefunded
	}
	s.metrics.ObserveRefund(string(status))
	res.Message = "Appointment cancelled and refund issued"
	if err := s.store.UpdatePaymentStatus(ctx, appt.ID, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to record refund status",
			"appointment_id", appt.ID,
			"payment_status", string(status),
			"err", err,
		)
		return res, nil
	}
	res.Appointment.PaymentStatus = status
	return res, nil
}
