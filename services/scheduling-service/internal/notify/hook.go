package notify

import (
	"context"
	"fmt"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/validator"
)

// Hook emails the patient after an appointment is scheduled, cancelled or
// rescheduled.
type Hook struct {
	users    validator.UserLookup
	notifier Notifier
}

func NewHook(users validator.UserLookup, notifier Notifier) *Hook {
	return &Hook{users: users, notifier: notifier}
}

func (h *Hook) Name() string { return "email" }

func (h *Hook) Handle(ctx context.Context, ev lifecycle.Event) error {
	if _, ok := templates[ev.Kind]; !ok {
		return nil
	}
	a := ev.Appointment
	patient, ok, err := h.users.FindByID(ctx, a.PatientID)
	if err != nil {
		return err
	}
	if !ok || patient.Email == "" {
		return fmt.Errorf("no email address for patient %d", a.PatientID)
	}
	data := emailData{
		PatientName: patient.Name,
		Date:        a.Date.String(),
		Time:        a.Time.String(),
		Type:        string(a.Type),
	}
	if pro, ok, err := h.users.FindByID(ctx, a.ProfessionalID); err == nil && ok {
		data.ProfessionalName = pro.Name
	}
	if a.CancellationReason != nil {
		data.Reason = *a.CancellationReason
	}
	if ev.Refund != nil && ev.Refund.Eligible {
		data.RefundAmount = ev.Refund.Amount.StringFixed(2)
		data.RefundPercentage = ev.Refund.Percentage
	}
	if ev.Previous != nil {
		data.PreviousDate = ev.Previous.Date.String()
		data.PreviousTime = ev.Previous.Time.String()
	}
	if ev.Fee != nil && ev.Fee.Applies {
		data.FeeAmount = ev.Fee.Amount.StringFixed(2)
	}

	subject, html, ok, err := render(ev.Kind, data)
	if err != nil || !ok {
		return err
	}
	return h.notifier.Send(ctx, patient.Email, subject, html)
}

var _ lifecycle.Hook = (*Hook)(nil)
