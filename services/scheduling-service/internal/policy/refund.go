// Package policy holds the pluggable rules the lifecycle consults after a
// state change: refunds on cancellation, fees on late reschedules, and who
// may move an appointment.
package policy

import (
	"context"
	"fmt"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
)

// RefundGateway performs the refund with the payment provider, which owns
// the percentage schedule.
type RefundGateway interface {
	Refund(ctx context.Context, appointmentID int64) (model.RefundDecision, error)
}

type RefundPolicy interface {
	Refund(ctx context.Context, appt model.Appointment) (model.RefundDecision, error)
}

type gatewayRefundPolicy struct {
	gateway RefundGateway
}

func NewGatewayRefundPolicy(gateway RefundGateway) RefundPolicy {
	return &gatewayRefundPolicy{gateway: gateway}
}

// Refund returns an ineligible decision for unpaid appointments without
// calling the provider.
func (p *gatewayRefundPolicy) Refund(ctx context.Context, appt model.Appointment) (model.RefundDecision, error) {
	if appt.PaymentStatus != model.PaymentPaid {
		return model.RefundDecision{}, nil
	}
	d, err := p.gateway.Refund(ctx, appt.ID)
	if err != nil {
		return model.RefundDecision{}, fmt.Errorf("refund appointment %d: %w", appt.ID, err)
	}
	return d, nil
}
