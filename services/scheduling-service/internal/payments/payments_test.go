package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/shopspring/decimal"
)

func TestMockGatewayChargeAndRefund(t *testing.T) {
	g := NewMockGateway()
	amount := decimal.RequireFromString("150.00")

	r, err := g.Charge(context.Background(), 7, Card{Token: "tok_4242424242424242"}, amount)
	if err != nil || r.Status != model.PaymentPaid || r.Invoice != "INV-000007" {
		t.Fatalf("unexpected receipt %+v %v", r, err)
	}
	d, err := g.Refund(context.Background(), 7)
	if err != nil || !d.Eligible || d.Percentage != 100 || !d.Amount.Equal(amount) {
		t.Fatalf("unexpected refund %+v %v", d, err)
	}
	if _, err := g.Refund(context.Background(), 7); !errors.Is(err, ErrNoCharge) {
		t.Fatalf("second refund must fail, got %v", err)
	}
}

func TestMockGatewayDeclines(t *testing.T) {
	r, err := NewMockGateway().Charge(context.Background(), 1, Card{Token: "tok_4000000000000002"}, decimal.NewFromInt(10))
	if !errors.Is(err, ErrDeclined) || r.Status != model.PaymentFailed {
		t.Fatalf("expected decline, got %+v %v", r, err)
	}
}

func TestMinorUnits(t *testing.T) {
	if got := toMinorUnits(decimal.RequireFromString("120.505")); got != 12051 {
		t.Fatalf("toMinorUnits: got %d", got)
	}
	if got := fromMinorUnits(6000); !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("fromMinorUnits: got %s", got)
	}
}

func TestStripeGatewayRefund(t *testing.T) {
	var refundIdem string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_intents/search":
			if !strings.Contains(r.URL.Query().Get("query"), "metadata['appointment_id']:'9'") {
				t.Errorf("unexpected search query %q", r.URL.Query().Get("query"))
			}
			fmt.Fprint(w, `{"object":"search_result","url":"/v1/payment_intents/search","has_more":false,"data":[{"id":"pi_123","object":"payment_intent","amount":12000,"status":"succeeded"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/refunds":
			refundIdem = r.Header.Get("Idempotency-Key")
			fmt.Fprint(w, `{"id":"re_1","object":"refund","amount":6000,"status":"succeeded"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test_123", BaseURL: srv.URL})
	d, err := g.Refund(context.Background(), 9)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if !d.Eligible || d.Percentage != 50 || !d.Amount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected decision %+v", d)
	}
	if refundIdem != "refund:appointment:9" {
		t.Fatalf("unexpected idempotency key %q", refundIdem)
	}
}

func TestStripeGatewayRefundWithoutCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"search_result","url":"/v1/payment_intents/search","has_more":false,"data":[]}`)
	}))
	defer srv.Close()

	_, err := NewStripeGateway(StripeConfig{SecretKey: "sk_test_123", BaseURL: srv.URL}).Refund(context.Background(), 3)
	if !errors.Is(err, ErrNoCharge) {
		t.Fatalf("expected ErrNoCharge, got %v", err)
	}
}
