package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// declineSuffix mirrors the provider's generic decline test card.
const declineSuffix = "0002"

// MockGateway is an in-process provider for local runs and tests. Tokens
// ending in 0002 are declined; refunds return the full captured amount.
type MockGateway struct {
	mu       sync.Mutex
	captured map[int64]decimal.Decimal
	refunded map[int64]bool
}

func NewMockGateway() *MockGateway {
	return &MockGateway{captured: map[int64]decimal.Decimal{}, refunded: map[int64]bool{}}
}

func (g *MockGateway) Charge(_ context.Context, appointmentID int64, card Card, amount decimal.Decimal) (Receipt, error) {
	if strings.TrimSpace(card.Token) == "" || !amount.IsPositive() {
		return Receipt{}, ErrInvalidInput
	}
	if strings.HasSuffix(card.Token, declineSuffix) {
		return Receipt{Status: model.PaymentFailed}, ErrDeclined
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.captured[appointmentID] = amount
	return Receipt{
		Reference: "mock_" + uuid.NewString(),
		Invoice:   fmt.Sprintf("INV-%06d", appointmentID),
		Status:    model.PaymentPaid,
		Amount:    amount,
	}, nil
}

func (g *MockGateway) Refund(_ context.Context, appointmentID int64) (model.RefundDecision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.captured[appointmentID]
	if !ok || g.refunded[appointmentID] {
		return model.RefundDecision{}, ErrNoCharge
	}
	g.refunded[appointmentID] = true
	return model.RefundDecision{Eligible: true, Amount: amount, Percentage: 100}, nil
}
