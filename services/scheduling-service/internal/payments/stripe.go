package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var stripeTracer = otel.Tracer("clinic.scheduling.payments.stripe")

const metadataAppointmentID = "appointment_id"

type StripeConfig struct {
	SecretKey string
	Currency  string
	// BaseURL overrides the API endpoint (tests).
	BaseURL string
}

// StripeGateway charges through PaymentIntents and refunds the intent tagged
// with the appointment id.
type StripeGateway struct {
	api      *client.API
	currency string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	var backends *stripe.Backends
	if cfg.BaseURL != "" {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				URL:               stripe.String(strings.TrimRight(cfg.BaseURL, "/")),
				MaxNetworkRetries: stripe.Int64(0),
			}),
		}
	}
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &StripeGateway{api: client.New(cfg.SecretKey, backends), currency: currency}
}

func (g *StripeGateway) Charge(ctx context.Context, appointmentID int64, card Card, amount decimal.Decimal) (Receipt, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.charge")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", appointmentID))

	if strings.TrimSpace(card.Token) == "" || !amount.IsPositive() {
		return Receipt{}, ErrInvalidInput
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(amount)),
		Currency:      stripe.String(g.currency),
		PaymentMethod: stripe.String(card.Token),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataAppointmentID, strconv.FormatInt(appointmentID, 10))
	params.SetIdempotencyKey(fmt.Sprintf("charge:appointment:%d", appointmentID))

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment intent failed")
		if se, ok := err.(*stripe.Error); ok && se.Type == stripe.ErrorTypeCard {
			return Receipt{Status: model.PaymentFailed}, fmt.Errorf("%w: %s", ErrDeclined, se.Msg)
		}
		return Receipt{}, fmt.Errorf("stripe payment intent: %w", err)
	}

	r := Receipt{Reference: pi.ID, Amount: amount}
	if pi.LatestCharge != nil {
		r.Invoice = pi.LatestCharge.ID
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		r.Status = model.PaymentPaid
	case stripe.PaymentIntentStatusProcessing:
		r.Status = model.PaymentProcessing
	default:
		r.Status = model.PaymentFailed
		return r, fmt.Errorf("%w: intent status %s", ErrDeclined, pi.Status)
	}
	return r, nil
}

func (g *StripeGateway) Refund(ctx context.Context, appointmentID int64) (model.RefundDecision, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.refund")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", appointmentID))

	pi, err := g.findIntent(ctx, appointmentID)
	if err != nil {
		span.RecordError(err)
		return model.RefundDecision{}, err
	}

	params := &stripe.RefundParams{PaymentIntent: stripe.String(pi.ID)}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("refund:appointment:%d", appointmentID))
	ref, err := g.api.Refunds.New(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refund failed")
		return model.RefundDecision{}, fmt.Errorf("stripe refund: %w", err)
	}

	pct := 0
	if pi.Amount > 0 {
		pct = int(ref.Amount * 100 / pi.Amount)
	}
	return model.RefundDecision{
		Eligible:   ref.Amount > 0,
		Amount:     fromMinorUnits(ref.Amount),
		Percentage: pct,
	}, nil
}

func (g *StripeGateway) findIntent(ctx context.Context, appointmentID int64) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentSearchParams{}
	params.Query = fmt.Sprintf("metadata['%s']:'%d' AND status:'succeeded'", metadataAppointmentID, appointmentID)
	params.Context = ctx
	iter := g.api.PaymentIntents.Search(params)
	if iter.Next() {
		return iter.PaymentIntent(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe search intents: %w", err)
	}
	return nil, ErrNoCharge
}

func toMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}
