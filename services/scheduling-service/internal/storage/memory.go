package storage

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
)

// MemoryStore keeps users, templates and appointments in process. It
// enforces the same uniqueness rules as the Postgres schema and is used for
// local runs and tests.
type MemoryStore struct {
	mu           sync.Mutex
	now          func() time.Time
	nextID       int64
	users        map[int64]model.User
	templates    map[int64][]model.AvailabilityTemplate
	appointments map[int64]model.Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		users:        map[int64]model.User{},
		templates:    map[int64][]model.AvailabilityTemplate{},
		appointments: map[int64]model.Appointment{},
	}
}

func (s *MemoryStore) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) AddTemplate(t model.AvailabilityTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if t.ID == 0 {
		t.ID = s.nextID
	}
	s.templates[t.ProfessionalID] = append(s.templates[t.ProfessionalID], t)
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (model.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return model.User{}, false, nil
	}
	return u, true, nil
}

func (s *MemoryStore) FindByProfessionalID(_ context.Context, professionalID int64) ([]model.AvailabilityTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.templates[professionalID]), nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) Create(_ context.Context, a model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(0, a.PatientID, a.ProfessionalID, a.Date, a.Time); err != nil {
		return model.Appointment{}, err
	}
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = s.now().UTC()
	a.UpdatedAt = a.CreatedAt
	s.appointments[a.ID] = a
	return a, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, from []model.Status, to model.Status) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.casLocked(id, from)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = to
	return s.saveLocked(a), nil
}

func (s *MemoryStore) UpdatePaymentStatus(_ context.Context, id int64, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return ErrNotFound
	}
	a.PaymentStatus = status
	s.saveLocked(a)
	return nil
}

func (s *MemoryStore) Cancel(_ context.Context, id int64, from []model.Status, to model.Status, reason string, cancelledBy int64) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.casLocked(id, from)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = to
	if reason != "" {
		a.CancellationReason = &reason
	}
	a.CancelledBy = &cancelledBy
	return s.saveLocked(a), nil
}

func (s *MemoryStore) Reschedule(_ context.Context, id int64, from []model.Status, date timerules.Date, at timerules.Clock) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.casLocked(id, from)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.checkUnique(id, a.PatientID, a.ProfessionalID, date, at); err != nil {
		return model.Appointment{}, err
	}
	a.Date, a.Time, a.Status = date, at, model.StatusRescheduled
	return s.saveLocked(a), nil
}

func (s *MemoryStore) HasActiveAppointment(_ context.Context, patientID, professionalID int64, date timerules.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if !a.Status.IsCancelled() && a.PatientID == patientID && a.ProfessionalID == professionalID && a.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) SlotOccupant(_ context.Context, professionalID int64, date timerules.Date, at timerules.Clock) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if !a.Status.IsCancelled() && a.ProfessionalID == professionalID && a.Date == date && a.Time == at {
			return a.ID, nil
		}
	}
	return 0, nil
}

func (s *MemoryStore) OccupiedSlots(_ context.Context, professionalID int64, date timerules.Date) ([]timerules.Clock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []timerules.Clock
	for _, a := range s.appointments {
		if !a.Status.IsCancelled() && a.ProfessionalID == professionalID && a.Date == date {
			out = append(out, a.Time)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// checkUnique mirrors the two partial unique indexes, skipping self.
func (s *MemoryStore) checkUnique(self, patientID, professionalID int64, date timerules.Date, at timerules.Clock) error {
	for id, a := range s.appointments {
		if id == self || a.Status.IsCancelled() || a.ProfessionalID != professionalID || a.Date != date {
			continue
		}
		if a.PatientID == patientID {
			return ErrDuplicateBooking
		}
		if a.Time == at {
			return ErrSlotTaken
		}
	}
	return nil
}

func (s *MemoryStore) casLocked(id int64, from []model.Status) (model.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if !slices.Contains(from, a.Status) {
		return model.Appointment{}, ErrStatusChanged
	}
	return a, nil
}

func (s *MemoryStore) saveLocked(a model.Appointment) model.Appointment {
	a.UpdatedAt = s.now().UTC()
	s.appointments[a.ID] = a
	return a
}
