package outbox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
)

const AggregateAppointment = "appointment"

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// EventType names the topic for an appointment event kind.
func EventType(kind lifecycle.EventKind) string {
	return fmt.Sprintf("scheduling.appointment.%s.v1", kind)
}

// published lists the lifecycle events other services subscribe to.
var published = map[lifecycle.EventKind]bool{
	lifecycle.EventScheduled:   true,
	lifecycle.EventCancelled:   true,
	lifecycle.EventRescheduled: true,
}

type appointmentPayload struct {
	AppointmentID  int64                 `json:"appointment_id"`
	PatientID      int64                 `json:"patient_id"`
	ProfessionalID int64                 `json:"professional_id"`
	Date           string                `json:"date"`
	Time           string                `json:"time"`
	Type           string                `json:"type"`
	Status         string                `json:"status"`
	PaymentStatus  string                `json:"payment_status"`
	PreviousDate   string                `json:"previous_date,omitempty"`
	PreviousTime   string                `json:"previous_time,omitempty"`
	Reason         string                `json:"cancellation_reason,omitempty"`
	Refund         *model.RefundDecision `json:"refund,omitempty"`
	Fee            *model.FeeDecision    `json:"fee,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// FromLifecycle builds the outbox envelope for ev. ok is false for kinds
// that are not published.
func FromLifecycle(ev lifecycle.Event, at time.Time) (evt Event, ok bool, err error) {
	if !published[ev.Kind] {
		return Event{}, false, nil
	}
	a := ev.Appointment
	p := appointmentPayload{
		AppointmentID:  a.ID,
		PatientID:      a.PatientID,
		ProfessionalID: a.ProfessionalID,
		Date:           a.Date.String(),
		Time:           a.Time.String(),
		Type:           string(a.Type),
		Status:         string(a.Status),
		PaymentStatus:  string(a.PaymentStatus),
		Refund:         ev.Refund,
		Fee:            ev.Fee,
		OccurredAt:     at.UTC(),
	}
	if a.CancellationReason != nil {
		p.Reason = *a.CancellationReason
	}
	if ev.Previous != nil {
		p.PreviousDate = ev.Previous.Date.String()
		p.PreviousTime = ev.Previous.Time.String()
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return Event{}, false, fmt.Errorf("marshal %s payload: %w", ev.Kind, err)
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   strconv.FormatInt(a.ID, 10),
		EventType:     EventType(ev.Kind),
		Payload:       payload,
	}, true, nil
}
