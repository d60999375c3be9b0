package lifecycle

import (
	"context"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
)

type EventKind string

const (
	EventScheduled   EventKind = "scheduled"
	EventConfirmed   EventKind = "confirmed"
	EventCheckedIn   EventKind = "checked_in"
	EventStarted     EventKind = "started"
	EventCompleted   EventKind = "completed"
	EventNoShow      EventKind = "no_show"
	EventCancelled   EventKind = "cancelled"
	EventRescheduled EventKind = "rescheduled"
)

// Event describes a committed state change.
type Event struct {
	Kind        EventKind
	Appointment model.Appointment
	// Previous is the appointment before a reschedule.
	Previous *model.Appointment
	Refund   *model.RefundDecision
	Fee      *model.FeeDecision
}

// Hook reacts to committed changes. Hook failures are logged and never
// undo or fail the operation that triggered them.
type Hook interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
}

func (s *Service) emit(ctx context.Context, ev Event) {
	for _, h := range s.hooks {
		if err := h.Handle(ctx, ev); err != nil {
			s.metrics.ObserveHookFailure(h.Name())
			s.logger.WarnContext(ctx, "post-commit hook failed",
				"hook", h.Name(),
				"event", string(ev.Kind),
				"appointment_id", ev.Appointment.ID,
				"err", err,
			)
		}
	}
}
