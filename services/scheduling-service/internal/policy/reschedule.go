package policy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/shopspring/decimal"
)

type ReschedulePolicy interface {
	// Evaluate decides whether moving appt at now carries a fee. The lead
	// time is measured to the appointment's original start.
	Evaluate(appt model.Appointment, now time.Time) model.FeeDecision
}

type freeWindowPolicy struct {
	window time.Duration
	fee    decimal.Decimal
	loc    *time.Location
}

// NewFreeWindowPolicy charges fee when a reschedule happens less than
// freeWindowHours before the original start.
func NewFreeWindowPolicy(freeWindowHours int, fee decimal.Decimal, loc *time.Location) ReschedulePolicy {
	if loc == nil {
		loc = time.UTC
	}
	return &freeWindowPolicy{window: time.Duration(freeWindowHours) * time.Hour, fee: fee, loc: loc}
}

func (p *freeWindowPolicy) Evaluate(appt model.Appointment, now time.Time) model.FeeDecision {
	lead := appt.StartsAt(p.loc).Sub(now)
	if lead >= p.window || p.fee.IsZero() {
		return model.FeeDecision{Amount: decimal.Zero, Reason: "within free rescheduling window"}
	}
	return model.FeeDecision{
		Applies: true,
		Amount:  p.fee,
		Reason:  fmt.Sprintf("rescheduled less than %d hours before the appointment", int(p.window.Hours())),
	}
}

// FeeCharger collects a rescheduling fee. Payment capture for fees happens
// outside this service, so the default implementation only records it.
type FeeCharger interface {
	ChargeFee(ctx context.Context, appt model.Appointment, fee model.FeeDecision) error
}

type loggingFeeCharger struct {
	logger *slog.Logger
}

func NewLoggingFeeCharger(logger *slog.Logger) FeeCharger {
	return &loggingFeeCharger{logger: logger}
}

func (c *loggingFeeCharger) ChargeFee(ctx context.Context, appt model.Appointment, fee model.FeeDecision) error {
	c.logger.InfoContext(ctx, "reschedule fee due",
		"appointment_id", appt.ID,
		"patient_id", appt.PatientID,
		"amount", fee.Amount.StringFixed(2),
		"reason", fee.Reason,
	)
	return nil
}
