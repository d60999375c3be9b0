package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/shopspring/decimal"
)

type users map[int64]model.User

func (u users) FindByID(_ context.Context, id int64) (model.User, bool, error) {
	user, ok := u[id]
	return user, ok, nil
}

var directory = users{
	1: {ID: 1, Name: "Ana <Souza>", Email: "ana@example.com", Role: model.RolePatient, IsActive: true},
	2: {ID: 2, Name: "Dr. Lima", Email: "lima@example.com", Role: model.RoleHealthProfessional, IsActive: true},
}

func appointment() model.Appointment {
	d, _ := timerules.ParseDate("2026-01-12")
	return model.Appointment{ID: 7, PatientID: 1, ProfessionalID: 2, Date: d, Time: timerules.NewClock(10, 0), Type: model.TypeOnline}
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHookRendersCancellationWithRefund(t *testing.T) {
	stub := NewStubSender(discard())
	h := NewHook(directory, stub)
	a := appointment()
	reason := "travel"
	a.CancellationReason = &reason

	err := h.Handle(context.Background(), lifecycle.Event{
		Kind:        lifecycle.EventCancelled,
		Appointment: a,
		Refund:      &model.RefundDecision{Eligible: true, Amount: decimal.RequireFromString("150"), Percentage: 100},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	sent := stub.Sent()
	if len(sent) != 1 || sent[0].To != "ana@example.com" {
		t.Fatalf("unexpected messages %+v", sent)
	}
	body := sent[0].HTML
	for _, want := range []string{"Ana &lt;Souza&gt;", "2026-01-12", "10:00", "Dr. Lima", "Reason: travel", "150.00 (100%)"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestHookSkipsStatusOnlyEvents(t *testing.T) {
	stub := NewStubSender(discard())
	h := NewHook(directory, stub)
	if err := h.Handle(context.Background(), lifecycle.Event{Kind: lifecycle.EventCheckedIn, Appointment: appointment()}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(stub.Sent()) != 0 {
		t.Fatalf("check-in must not send email")
	}
}

func TestHookRescheduleMentionsPreviousSlotAndFee(t *testing.T) {
	stub := NewStubSender(discard())
	prev := appointment()
	moved := appointment()
	moved.Time = timerules.NewClock(11, 40)

	err := NewHook(directory, stub).Handle(context.Background(), lifecycle.Event{
		Kind:        lifecycle.EventRescheduled,
		Appointment: moved,
		Previous:    &prev,
		Fee:         &model.FeeDecision{Applies: true, Amount: decimal.RequireFromString("50")},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	body := stub.Sent()[0].HTML
	if !strings.Contains(body, "at 10:00 has been moved") || !strings.Contains(body, "fee of 50.00") || !strings.Contains(body, "11:40") {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

func TestHookMissingPatientFails(t *testing.T) {
	a := appointment()
	a.PatientID = 99
	if err := NewHook(directory, NewStubSender(discard())).Handle(context.Background(), lifecycle.Event{Kind: lifecycle.EventScheduled, Appointment: a}); err == nil {
		t.Fatalf("expected error for unknown patient")
	}
}

func TestSendGridSender(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" || r.Header.Get("Authorization") != "Bearer SG.test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "noreply@clinic.example", Host: srv.URL}, discard())
	if err := s.Send(context.Background(), "ana@example.com", "Hi", "<p>Hello <b>Ana</b></p>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["subject"] != "Hi" {
		t.Fatalf("unexpected payload %v", got)
	}

	if NewSendGridSender(SendGridConfig{}, discard()) != nil {
		t.Fatalf("expected nil sender without api key")
	}
}

func TestBuildMessageIsHTML(t *testing.T) {
	msg := buildMessage("a@x", "b@y", "Subj", "<p>x</p>")
	if !strings.Contains(msg, "Content-Type: text/html; charset=utf-8\r\n") || !strings.HasSuffix(msg, "<p>x</p>\r\n") {
		t.Fatalf("unexpected message %q", msg)
	}
	if got := plainText("<p>Hello <b>Ana</b></p>"); got != "Hello Ana" {
		t.Fatalf("plainText: %q", got)
	}
}
