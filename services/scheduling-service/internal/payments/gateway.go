// Package payments captures consultation fees and refunds them on
// cancellation. The provider decides refund amounts.
package payments

import (
	"context"
	"errors"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrDeclined     = errors.New("payments: card declined")
	ErrNoCharge     = errors.New("payments: no captured charge for appointment")
	ErrInvalidInput = errors.New("payments: invalid charge request")
)

// Card references a payment method. Token is the provider's payment method
// id, for example a Stripe pm_ id collected by the front end.
type Card struct {
	Token string `json:"token"`
}

type Receipt struct {
	Reference string
	Invoice   string
	Status    model.PaymentStatus
	Amount    decimal.Decimal
}

type Gateway interface {
	Charge(ctx context.Context, appointmentID int64, card Card, amount decimal.Decimal) (Receipt, error)
	Refund(ctx context.Context, appointmentID int64) (model.RefundDecision, error)
}
