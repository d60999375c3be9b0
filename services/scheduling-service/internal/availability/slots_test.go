package availability

import (
	"context"
	"testing"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
)

type staticTemplates []model.AvailabilityTemplate

func (s staticTemplates) FindByProfessionalID(_ context.Context, id int64) ([]model.AvailabilityTemplate, error) {
	var out []model.AvailabilityTemplate
	for _, t := range s {
		if t.ProfessionalID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

type bookedSet map[timerules.Clock]bool

func (b bookedSet) OccupiedSlots(context.Context, int64, timerules.Date) (map[timerules.Clock]bool, error) {
	return b, nil
}

var monday = timerules.NewDate(2026, time.January, 12)

// Tuesday of the week before.
var lastWeek = time.Date(2026, time.January, 6, 8, 0, 0, 0, time.UTC)

func window(day time.Weekday, from, to string, active bool) model.AvailabilityTemplate {
	start, _ := timerules.ParseClock(from)
	end, _ := timerules.ParseClock(to)
	return model.AvailabilityTemplate{ProfessionalID: 2, DayOfWeek: day, Start: start, End: end, IsActive: active}
}

func newResolver(templates staticTemplates, booked bookedSet) *Resolver {
	return NewResolver(templates, booked, time.UTC)
}

func clocks(slots []model.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time.String()
	}
	return out
}

func TestResolveOpenSlots_WindowBoundary(t *testing.T) {
	r := newResolver(staticTemplates{window(time.Monday, "09:00", "12:00", true)}, bookedSet{})

	slots, err := r.ResolveOpenSlots(context.Background(), 2, monday, lastWeek)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	got := clocks(slots)
	want := []string{"09:00", "09:50", "10:40"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
		// 09:00 is 540 minutes past midnight, off the 50 minute grid.
		if slots[i].Available {
			t.Fatalf("off-grid slot %s must not be offered", got[i])
		}
	}
}

func TestResolveOpenSlots_BookedKeptUnavailable(t *testing.T) {
	r := newResolver(
		staticTemplates{window(time.Monday, "10:00", "12:30", true)},
		bookedSet{timerules.NewClock(10, 50): true},
	)
	slots, err := r.ResolveOpenSlots(context.Background(), 2, monday, lastWeek)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %v", clocks(slots))
	}
	if !slots[0].Available || slots[1].Available || !slots[2].Available {
		t.Fatalf("expected only 10:50 unavailable, got %+v", slots)
	}
}

func TestResolveOpenSlots_NoWindow(t *testing.T) {
	r := newResolver(staticTemplates{
		window(time.Tuesday, "10:00", "12:00", true),
		window(time.Monday, "10:00", "12:00", false),
	}, bookedSet{})
	slots, err := r.ResolveOpenSlots(context.Background(), 2, monday, lastWeek)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", slots)
	}
}

func TestResolveOpenSlots_OverlappingWindowsDeduplicate(t *testing.T) {
	r := newResolver(staticTemplates{
		window(time.Monday, "10:00", "11:40", true),
		window(time.Monday, "10:00", "10:50", true),
	}, bookedSet{timerules.NewClock(10, 0): true})
	slots, err := r.ResolveOpenSlots(context.Background(), 2, monday, lastWeek)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	if len(slots) != 2 || slots[0].Available {
		t.Fatalf("expected 10:00 once and unavailable, got %+v", slots)
	}
}

func TestCovers(t *testing.T) {
	// Only starts the resolver lists are covered.
	r := newResolver(staticTemplates{window(time.Monday, "10:00", "12:00", true)}, bookedSet{})
	cases := map[string]bool{"10:00": true, "10:50": true, "11:40": false, "09:10": false, "10:25": false}
	for at, want := range cases {
		c, _ := timerules.ParseClock(at)
		got, err := r.Covers(context.Background(), 2, monday, c)
		if err != nil {
			t.Fatalf("Covers: %v", err)
		}
		if got != want {
			t.Fatalf("Covers(%s) = %v, want %v", at, got, want)
		}
	}
}

func TestWindowStarts(t *testing.T) {
	got := WindowStarts(timerules.NewClock(9, 0), timerules.NewClock(10, 0), 15, 15)
	if len(got) != 4 || got[3] != timerules.NewClock(9, 45) {
		t.Fatalf("unexpected starts %v", got)
	}
	if WindowStarts(timerules.NewClock(10, 0), timerules.NewClock(10, 30), 50, 50) != nil {
		t.Fatalf("window shorter than a slot yields nothing")
	}
}

func TestResolveOpenSlots_GridAlignedWindowIsOffered(t *testing.T) {
	r := newResolver(staticTemplates{window(time.Monday, "08:20", "10:50", true)}, bookedSet{})
	slots, err := r.ResolveOpenSlots(context.Background(), 2, monday, lastWeek)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	if got := clocks(slots); len(got) != 3 || got[0] != "08:20" || got[2] != "10:00" {
		t.Fatalf("unexpected slots %v", got)
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("expected %s to be offered", s.Time)
		}
	}
}

func TestResolveOpenSlots_OverlappingBookingBlocksSlot(t *testing.T) {
	// A consultation at 10:20 runs into both the 10:00 and 10:50 slots.
	r := newResolver(
		staticTemplates{window(time.Monday, "10:00", "12:30", true)},
		bookedSet{timerules.NewClock(10, 20): true},
	)
	slots, err := r.ResolveOpenSlots(context.Background(), 2, monday, lastWeek)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	if len(slots) != 3 || slots[0].Available || slots[1].Available || !slots[2].Available {
		t.Fatalf("expected only 11:40 offered, got %+v", slots)
	}
}

func TestResolveOpenSlots_ElapsedSlotsNotOffered(t *testing.T) {
	r := newResolver(staticTemplates{window(time.Monday, "10:00", "12:30", true)}, bookedSet{})
	mid := time.Date(2026, time.January, 12, 10, 30, 0, 0, time.UTC)
	slots, err := r.ResolveOpenSlots(context.Background(), 2, monday, mid)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	if len(slots) != 3 || slots[0].Available || !slots[1].Available || !slots[2].Available {
		t.Fatalf("expected 10:00 elapsed, got %+v", slots)
	}

	later := time.Date(2026, time.January, 13, 8, 0, 0, 0, time.UTC)
	slots, _ = r.ResolveOpenSlots(context.Background(), 2, monday, later)
	for _, s := range slots {
		if s.Available {
			t.Fatalf("a past day offers nothing, got %+v", slots)
		}
	}
}

func TestResolveOpenSlots_BeyondHorizonNotOffered(t *testing.T) {
	r := newResolver(staticTemplates{window(time.Monday, "10:00", "11:00", true)}, bookedSet{})
	far := monday.AddDays(91)
	slots, err := r.ResolveOpenSlots(context.Background(), 2, far, lastWeek)
	if err != nil {
		t.Fatalf("ResolveOpenSlots: %v", err)
	}
	if len(slots) != 1 || slots[0].Available {
		t.Fatalf("expected the slot listed but not offered, got %+v", slots)
	}
}
