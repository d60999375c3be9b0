// Package availability turns a professional's weekly working windows into
// the bookable slots of a given day.
package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
)

type TemplateSource interface {
	FindByProfessionalID(ctx context.Context, professionalID int64) ([]model.AvailabilityTemplate, error)
}

// Occupancy reports which start times of a day are already booked.
type Occupancy interface {
	OccupiedSlots(ctx context.Context, professionalID int64, date timerules.Date) (map[timerules.Clock]bool, error)
}

type Resolver struct {
	templates TemplateSource
	occupancy Occupancy
	loc       *time.Location
}

func NewResolver(templates TemplateSource, occupancy Occupancy, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{templates: templates, occupancy: occupancy, loc: loc}
}

// WindowStarts returns slot start times within [start, end) where a slot of
// length duration fits entirely, stepping by step from start.
func WindowStarts(start, end timerules.Clock, duration, step timerules.Clock) []timerules.Clock {
	if duration <= 0 || step <= 0 || end <= start {
		return nil
	}
	var out []timerules.Clock
	for t := start; t+duration <= end; t += step {
		out = append(out, t)
	}
	return out
}

// ResolveOpenSlots lists the day's slots ordered by time. A slot is
// available only when the calendar rules of a booking accept it at now and
// it overlaps no booked consultation. Unavailable slots are returned rather
// than dropped. A day with no active window yields an empty list.
func (r *Resolver) ResolveOpenSlots(ctx context.Context, professionalID int64, date timerules.Date, now time.Time) ([]model.Slot, error) {
	windows, err := r.windowsFor(ctx, professionalID, date)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []model.Slot{}, nil
	}

	occupied, err := r.occupancy.OccupiedSlots(ctx, professionalID, date)
	if err != nil {
		return nil, err
	}

	// Overlapping windows may yield the same start twice.
	seen := map[timerules.Clock]bool{}
	slots := []model.Slot{}
	for _, w := range windows {
		for _, start := range WindowStarts(w.Start, w.End, timerules.SlotMinutes, timerules.SlotMinutes) {
			if seen[start] {
				continue
			}
			seen[start] = true
			free := r.bookable(date, start, now) && !overlapsAny(start, occupied)
			slots = append(slots, model.Slot{Date: date, Time: start, Available: free})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	return slots, nil
}

// bookable applies the calendar rules every booking must pass. Minimum
// notice depends on the appointment type and is left to the validator.
func (r *Resolver) bookable(date timerules.Date, start timerules.Clock, now time.Time) bool {
	return timerules.IsNotSunday(date) &&
		timerules.IsValid50MinuteSlot(start) &&
		timerules.IsFuture(date, start, now, r.loc) &&
		timerules.IsWithinDayRange(date, timerules.BookingHorizonDays, timerules.DateOf(now, r.loc))
}

// overlapsAny reports whether the consultation starting at start shares any
// minute with a booked one. Both are half-open 50-minute intervals.
func overlapsAny(start timerules.Clock, booked map[timerules.Clock]bool) bool {
	end := start + timerules.SlotMinutes
	for b := range booked {
		if start < b+timerules.SlotMinutes && b < end {
			return true
		}
	}
	return false
}

// Covers reports whether at is one of the slot starts generated for an
// active window of that weekday.
func (r *Resolver) Covers(ctx context.Context, professionalID int64, date timerules.Date, at timerules.Clock) (bool, error) {
	windows, err := r.windowsFor(ctx, professionalID, date)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if at >= w.Start && at+timerules.SlotMinutes <= w.End && (at-w.Start)%timerules.SlotMinutes == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) windowsFor(ctx context.Context, professionalID int64, date timerules.Date) ([]model.AvailabilityTemplate, error) {
	templates, err := r.templates.FindByProfessionalID(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("load availability templates: %w", err)
	}
	weekday := date.Weekday()
	var out []model.AvailabilityTemplate
	for _, t := range templates {
		if t.IsActive && t.DayOfWeek == weekday {
			out = append(out, t)
		}
	}
	return out, nil
}
