// Package conflict answers the two exclusivity questions asked before an
// appointment is written: does the patient already see this professional on
// that day, and is the professional's slot free.
package conflict

import (
	"context"
	"fmt"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
)

// Store reads non-cancelled appointments.
type Store interface {
	// HasActiveAppointment reports whether the patient holds a non-cancelled
	// appointment with the professional on date.
	HasActiveAppointment(ctx context.Context, patientID, professionalID int64, date timerules.Date) (bool, error)
	// SlotOccupant returns the id of the non-cancelled appointment holding the
	// professional's slot, or 0 when it is free.
	SlotOccupant(ctx context.Context, professionalID int64, date timerules.Date, at timerules.Clock) (int64, error)
	// OccupiedSlots returns the start times of every non-cancelled appointment
	// of the professional on date.
	OccupiedSlots(ctx context.Context, professionalID int64, date timerules.Date) ([]timerules.Clock, error)
}

type Detector struct {
	store Store
}

func NewDetector(store Store) *Detector {
	return &Detector{store: store}
}

// HasConflict is the date-level rule: one appointment per patient, per
// professional, per day.
func (d *Detector) HasConflict(ctx context.Context, patientID, professionalID int64, date timerules.Date) (bool, error) {
	ok, err := d.store.HasActiveAppointment(ctx, patientID, professionalID, date)
	if err != nil {
		return false, fmt.Errorf("check patient conflict: %w", err)
	}
	return ok, nil
}

// IsProfessionalAvailable is the slot-level rule: no other non-cancelled
// appointment of the professional starts at the same date and time.
func (d *Detector) IsProfessionalAvailable(ctx context.Context, professionalID int64, date timerules.Date, at timerules.Clock) (bool, error) {
	return d.IsProfessionalAvailableFor(ctx, 0, professionalID, date, at)
}

// IsProfessionalAvailableFor is IsProfessionalAvailable ignoring the
// appointment being moved, so a reschedule onto its own slot is not a clash.
func (d *Detector) IsProfessionalAvailableFor(ctx context.Context, appointmentID, professionalID int64, date timerules.Date, at timerules.Clock) (bool, error) {
	occupant, err := d.store.SlotOccupant(ctx, professionalID, date, at)
	if err != nil {
		return false, fmt.Errorf("check slot occupancy: %w", err)
	}
	return occupant == 0 || (appointmentID != 0 && occupant == appointmentID), nil
}

// OccupiedSlots returns the professional's taken start times on date as a set.
func (d *Detector) OccupiedSlots(ctx context.Context, professionalID int64, date timerules.Date) (map[timerules.Clock]bool, error) {
	clocks, err := d.store.OccupiedSlots(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("list occupied slots: %w", err)
	}
	out := make(map[timerules.Clock]bool, len(clocks))
	for _, c := range clocks {
		out[c] = true
	}
	return out, nil
}
