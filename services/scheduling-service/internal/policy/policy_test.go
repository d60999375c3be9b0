package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/shopspring/decimal"
)

type fakeGateway struct {
	calls int
	err   error
}

func (g *fakeGateway) Refund(context.Context, int64) (model.RefundDecision, error) {
	g.calls++
	if g.err != nil {
		return model.RefundDecision{}, g.err
	}
	return model.RefundDecision{Eligible: true, Amount: decimal.RequireFromString("120.00"), Percentage: 100}, nil
}

func TestRefundSkipsUnpaid(t *testing.T) {
	gw := &fakeGateway{}
	d, err := NewGatewayRefundPolicy(gw).Refund(context.Background(), model.Appointment{ID: 1, PaymentStatus: model.PaymentPending})
	if err != nil || d.Eligible || gw.calls != 0 {
		t.Fatalf("unpaid appointment must not reach the gateway: %+v %v calls=%d", d, err, gw.calls)
	}
}

func TestRefundPropagatesGatewayError(t *testing.T) {
	boom := errors.New("provider down")
	gw := &fakeGateway{err: boom}
	_, err := NewGatewayRefundPolicy(gw).Refund(context.Background(), model.Appointment{ID: 1, PaymentStatus: model.PaymentPaid})
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestFreeWindowPolicy(t *testing.T) {
	p := NewFreeWindowPolicy(24, decimal.RequireFromString("50"), time.UTC)
	appt := model.Appointment{Date: timerules.NewDate(2026, time.January, 12), Time: timerules.NewClock(10, 0)}

	early := time.Date(2026, 1, 11, 10, 0, 0, 0, time.UTC)
	if d := p.Evaluate(appt, early); d.Applies {
		t.Fatalf("exactly 24h ahead is free, got %+v", d)
	}
	late := early.Add(time.Minute)
	d := p.Evaluate(appt, late)
	if !d.Applies || !d.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected fee, got %+v", d)
	}
}

func TestRoleAuthorizer(t *testing.T) {
	a := DefaultAuthorizer()
	if !a.CanReschedule(model.User{Role: model.RoleReceptionist, IsActive: true}, model.Appointment{}) {
		t.Fatalf("receptionist should be allowed")
	}
	if a.CanReschedule(model.User{Role: model.RoleLabTechnician, IsActive: true}, model.Appointment{}) {
		t.Fatalf("lab technician should not be allowed")
	}
	if a.CanReschedule(model.User{Role: model.RoleClinicAdmin}, model.Appointment{}) {
		t.Fatalf("inactive users are never allowed")
	}
}

func TestRoleAuthorizerCancel(t *testing.T) {
	a := DefaultAuthorizer()
	appt := model.Appointment{PatientID: 1, ProfessionalID: 2}
	cases := []struct {
		name  string
		actor model.User
		want  bool
	}{
		{"receptionist", model.User{ID: 3, Role: model.RoleReceptionist, IsActive: true}, true},
		{"system admin", model.User{ID: 9, Role: model.RoleSystemAdmin, IsActive: true}, true},
		{"lab technician", model.User{ID: 7, Role: model.RoleLabTechnician, IsActive: true}, false},
		{"assigned professional", model.User{ID: 2, Role: model.RoleHealthProfessional, IsActive: true}, true},
		{"other professional", model.User{ID: 5, Role: model.RoleHealthProfessional, IsActive: true}, false},
		{"inactive admin", model.User{ID: 8, Role: model.RoleClinicAdmin}, false},
	}
	for _, tc := range cases {
		if got := a.CanCancel(tc.actor, appt); got != tc.want {
			t.Fatalf("%s: CanCancel = %v, want %v", tc.name, got, tc.want)
		}
	}
}
