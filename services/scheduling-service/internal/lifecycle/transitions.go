package lifecycle

import (
	"context"
	"errors"
	"slices"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/apperr"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

type transition struct {
	op   string
	from []model.Status
	to   model.Status
	kind EventKind
}

var (
	confirmTransition = transition{
		op:   "confirm",
		from: []model.Status{model.StatusScheduled, model.StatusRescheduled},
		to:   model.StatusConfirmed,
		kind: EventConfirmed,
	}
	checkInTransition = transition{
		op:   "check_in",
		from: []model.Status{model.StatusConfirmed},
		to:   model.StatusWaiting,
		kind: EventCheckedIn,
	}
	startTransition = transition{
		op:   "start",
		from: []model.Status{model.StatusWaiting},
		to:   model.StatusInProgress,
		kind: EventStarted,
	}
	completeTransition = transition{
		op:   "complete",
		from: []model.Status{model.StatusInProgress},
		to:   model.StatusCompleted,
		kind: EventCompleted,
	}
	noShowTransition = transition{
		op:   "no_show",
		from: []model.Status{model.StatusScheduled, model.StatusConfirmed, model.StatusRescheduled, model.StatusWaiting},
		to:   model.StatusNoShow,
		kind: EventNoShow,
	}
)

func (s *Service) Confirm(ctx context.Context, id int64) (model.Appointment, error) {
	return s.apply(ctx, id, confirmTransition)
}

// CheckIn records the patient's arrival.
func (s *Service) CheckIn(ctx context.Context, id int64) (model.Appointment, error) {
	return s.apply(ctx, id, checkInTransition)
}

func (s *Service) Start(ctx context.Context, id int64) (model.Appointment, error) {
	return s.apply(ctx, id, startTransition)
}

func (s *Service) Complete(ctx context.Context, id int64) (model.Appointment, error) {
	return s.apply(ctx, id, completeTransition)
}

func (s *Service) MarkNoShow(ctx context.Context, id int64) (model.Appointment, error) {
	return s.apply(ctx, id, noShowTransition)
}

func (s *Service) apply(ctx context.Context, id int64, t transition) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "lifecycle."+t.op)
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", id))

	appt, err := s.get(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !slices.Contains(t.from, appt.Status) {
		err := apperr.InvalidStatusTransition(string(appt.Status), string(t.to))
		s.reject(t.op, err)
		return model.Appointment{}, err
	}

	updated, err := s.store.UpdateStatus(ctx, id, t.from, t.to)
	if errors.Is(err, storage.ErrStatusChanged) {
		// Lost a race with another writer; report against the fresh state.
		current, gerr := s.get(ctx, id)
		if gerr != nil {
			return model.Appointment{}, gerr
		}
		err := apperr.InvalidStatusTransition(string(current.Status), string(t.to))
		s.reject(t.op, err)
		return model.Appointment{}, err
	}
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, err
	}

	s.metrics.ObserveOperation(t.op, "ok")
	s.logger.InfoContext(ctx, "appointment status changed",
		"appointment_id", id,
		"from", string(appt.Status),
		"to", string(updated.Status),
	)
	s.emit(ctx, Event{Kind: t.kind, Appointment: updated})
	return updated, nil
}
