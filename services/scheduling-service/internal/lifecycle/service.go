// Package lifecycle drives appointments through their states: scheduling,
// confirmation, arrival, consultation, cancellation and rescheduling.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/apperr"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/availability"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/metrics"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/payments"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/policy"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/storage"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/validator"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("clinic.scheduling.lifecycle")

// ErrRefundFailed wraps a provider failure after a cancellation was stored.
var ErrRefundFailed = errors.New("refund failed")

type AppointmentStore interface {
	Get(ctx context.Context, id int64) (model.Appointment, error)
	Create(ctx context.Context, a model.Appointment) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, from []model.Status, to model.Status) (model.Appointment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) error
	Cancel(ctx context.Context, id int64, from []model.Status, to model.Status, reason string, cancelledBy int64) (model.Appointment, error)
	Reschedule(ctx context.Context, id int64, from []model.Status, date timerules.Date, at timerules.Clock) (model.Appointment, error)
}

type Deps struct {
	Store      AppointmentStore
	Users      validator.UserLookup
	Validator  *validator.SlotValidator
	Resolver   *availability.Resolver
	Payments   payments.Gateway
	Refunds    policy.RefundPolicy
	Reschedule policy.ReschedulePolicy
	Fees       policy.FeeCharger
	Authorizer policy.Authorizer
	Hooks      []Hook
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Location   *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store      AppointmentStore
	users      validator.UserLookup
	validator  *validator.SlotValidator
	resolver   *availability.Resolver
	payments   payments.Gateway
	refunds    policy.RefundPolicy
	reschedule policy.ReschedulePolicy
	fees       policy.FeeCharger
	authorizer policy.Authorizer
	hooks      []Hook
	logger     *slog.Logger
	metrics    *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Authorizer == nil {
		d.Authorizer = policy.DefaultAuthorizer()
	}
	if d.Fees == nil {
		d.Fees = policy.NewLoggingFeeCharger(d.Logger)
	}
	return &Service{
		store:      d.Store,
		users:      d.Users,
		validator:  d.Validator,
		resolver:   d.Resolver,
		payments:   d.Payments,
		refunds:    d.Refunds,
		reschedule: d.Reschedule,
		fees:       d.Fees,
		authorizer: d.Authorizer,
		hooks:      d.Hooks,
		logger:     d.Logger,
		metrics:    d.Metrics,
		loc:        d.Location,
		now:        d.Now,
	}
}

// OpenSlots lists the professional's slots for date, booked ones included
// as unavailable.
func (s *Service) OpenSlots(ctx context.Context, professionalID int64, date timerules.Date) ([]model.Slot, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.open_slots")
	defer span.End()

	s.metrics.ObserveSlotQuery()
	u, ok, err := s.users.FindByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if !ok || u.Role != model.RoleHealthProfessional {
		return nil, apperr.NotFound("professional", professionalID)
	}
	return s.resolver.ResolveOpenSlots(ctx, professionalID, date, s.now())
}

func (s *Service) get(ctx context.Context, id int64) (model.Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Appointment{}, apperr.NotFound("appointment", id)
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("load appointment %d: %w", id, err)
	}
	return a, nil
}

func (s *Service) actor(ctx context.Context, id int64) (model.User, error) {
	u, ok, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	if !ok {
		return model.User{}, apperr.NotFound("user", id)
	}
	return u, nil
}

// writeError turns storage uniqueness violations into the engine's errors.
func writeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrDuplicateBooking):
		return apperr.DuplicateAppointment()
	case errors.Is(err, storage.ErrSlotTaken):
		return apperr.SlotTaken()
	default:
		return err
	}
}

func (s *Service) reject(op string, err error) {
	if e, ok := apperr.As(err); ok {
		s.metrics.ObserveRejection(op, string(e.Reason))
		return
	}
	s.metrics.ObserveOperation(op, "error")
}
