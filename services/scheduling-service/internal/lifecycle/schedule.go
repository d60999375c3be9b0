package lifecycle

import (
	"context"
	"errors"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/payments"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/validator"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ScheduleRequest struct {
	validator.BookingRequest
	Price decimal.NullDecimal
	// Card triggers payment capture right after the appointment is stored.
	Card *payments.Card
}

type ScheduleResult struct {
	Appointment model.Appointment
	Invoice     string
	Message     string
}

// Schedule validates and stores a new appointment, then attempts payment
// capture when card details were supplied. A failed capture leaves the
// appointment booked with payment_status=failed.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (ScheduleResult, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.schedule")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("patient.id", req.PatientID),
		attribute.Int64("professional.id", req.ProfessionalID),
		attribute.String("appointment.date", req.Date.String()),
		attribute.String("appointment.time", req.Time.String()),
	)

	if err := s.validator.ValidateBooking(ctx, req.BookingRequest, s.now()); err != nil {
		s.reject("schedule", err)
		span.SetStatus(codes.Error, err.Error())
		return ScheduleResult{}, err
	}

	charge := req.Card != nil && req.Price.Valid && req.Price.Decimal.IsPositive() && s.payments != nil
	appt := model.Appointment{
		PatientID:      req.PatientID,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Time:           req.Time,
		Type:           req.Type,
		Status:         model.StatusScheduled,
		PaymentStatus:  model.PaymentPending,
		Price:          req.Price,
	}
	if charge {
		appt.PaymentStatus = model.PaymentProcessing
	}

	created, err := s.store.Create(ctx, appt)
	if err != nil {
		err = writeError(err)
		s.reject("schedule", err)
		span.RecordError(err)
		return ScheduleResult{}, err
	}
	span.SetAttributes(attribute.Int64("appointment.id", created.ID))

	res := ScheduleResult{Appointment: created, Message: "Appointment scheduled"}
	if charge {
		res = s.capture(ctx, res, *req.Card)
	}

	s.metrics.ObserveOperation("schedule", "ok")
	s.logger.InfoContext(ctx, "appointment scheduled",
		"appointment_id", created.ID,
		"patient_id", created.PatientID,
		"professional_id", created.ProfessionalID,
		"date", created.Date.String(),
		"time", created.Time.String(),
		"payment_status", string(res.Appointment.PaymentStatus),
	)
	s.emit(ctx, Event{Kind: EventScheduled, Appointment: res.Appointment})
	return res, nil
}

// capture charges the card and records the outcome. Errors stay here: the
// booking already committed.
func (s *Service) capture(ctx context.Context, res ScheduleResult, card payments.Card) ScheduleResult {
	appt := res.Appointment
	receipt, err := s.payments.Charge(ctx, appt.ID, card, appt.Price.Decimal)

	status := receipt.Status
	if err != nil || status == "" {
		status = model.PaymentFailed
	}
	s.metrics.ObservePayment(string(status))
	if err != nil {
		s.logger.WarnContext(ctx, "payment capture failed",
			"appointment_id", appt.ID,
			"declined", errors.Is(err, payments.ErrDeclined),
			"err", err,
		)
		res.Message = "Appointment scheduled but payment failed"
	} else {
		res.Invoice = receipt.Invoice
		res.Message = "Appointment scheduled and payment processed"
	}

	if uerr := s.store.UpdatePaymentStatus(ctx, appt.ID, status); uerr != nil {
		s.logger.ErrorContext(ctx, "failed to record payment status",
			"appointment_id", appt.ID,
			"payment_status", string(status),
			"err", uerr,
		)
		return res
	}
	res.Appointment.PaymentStatus = status
	return res
}
