package timerules

import (
	"testing"
	"time"
)

func TestIsNotSunday(t *testing.T) {
	cases := []struct {
		date string
		want bool
	}{
		{"2026-01-04", false}, // Sunday
		{"2026-01-05", true},
		{"2026-01-10", true}, // Saturday
		{"2026-03-01", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.date)
		if err != nil {
			t.Fatalf("ParseDate(%s): %v", tc.date, err)
		}
		if got := IsNotSunday(d); got != tc.want {
			t.Fatalf("IsNotSunday(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestIsNotSundayIgnoresHostZone(t *testing.T) {
	prev := time.Local
	t.Cleanup(func() { time.Local = prev })

	for _, name := range []string{"Pacific/Kiritimati", "Pacific/Pago_Pago", "America/Sao_Paulo"} {
		loc, err := time.LoadLocation(name)
		if err != nil {
			t.Skipf("zoneinfo unavailable: %v", err)
		}
		time.Local = loc
		d, _ := ParseDate("2026-01-04")
		if IsNotSunday(d) {
			t.Fatalf("2026-01-04 must be Sunday with host zone %s", name)
		}
	}
}

func TestIsValid50MinuteSlot(t *testing.T) {
	cases := []struct {
		clock string
		want  bool
	}{
		{"00:00", true},
		{"00:50", true},
		{"10:00", true},  // 600
		{"10:50", true},  // 650
		{"11:40", true},  // 700
		{"09:00", false}, // 540
		{"09:30", false},
		{"13:20", true}, // 800
		{"23:20", true}, // 1400
	}
	for _, tc := range cases {
		c, err := ParseClock(tc.clock)
		if err != nil {
			t.Fatalf("ParseClock(%s): %v", tc.clock, err)
		}
		if got := IsValid50MinuteSlot(c); got != tc.want {
			t.Fatalf("IsValid50MinuteSlot(%s) = %v, want %v", tc.clock, got, tc.want)
		}
	}
}

func TestIsMinimumHoursInFuture(t *testing.T) {
	now := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)
	if !IsMinimumHoursInFuture(now.Add(2*time.Hour), 2, now) {
		t.Fatalf("exactly 2h ahead must pass")
	}
	if IsMinimumHoursInFuture(now.Add(2*time.Hour-time.Minute), 2, now) {
		t.Fatalf("1h59m ahead must fail")
	}
	if !IsMinimumHoursInFuture(now, 0, now) {
		t.Fatalf("zero hours at now must pass")
	}
}

func TestIsWithinDayRange(t *testing.T) {
	today := NewDate(2026, time.January, 6)
	if !IsWithinDayRange(today.AddDays(90), BookingHorizonDays, today) {
		t.Fatalf("day 90 must be inside the horizon")
	}
	if IsWithinDayRange(today.AddDays(91), BookingHorizonDays, today) {
		t.Fatalf("day 91 must be outside the horizon")
	}
	if got := today.AddDays(90).String(); got != "2026-04-06" {
		t.Fatalf("unexpected day 90: %s", got)
	}
}

func TestIsWithinMinimumHoursUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2026, 1, 6, 11, 0, 0, 0, time.UTC) // 08:00 local
	d := NewDate(2026, time.January, 6)
	if !IsWithinMinimumHours(d, NewClock(10, 0), 2, now, loc) {
		t.Fatalf("10:00 local is exactly 2h after 08:00 local")
	}
	if IsWithinMinimumHours(d, NewClock(9, 10), 2, now, loc) {
		t.Fatalf("09:10 local is less than 2h ahead")
	}
}

func TestParseClock(t *testing.T) {
	if c, err := ParseClock("10:50:00"); err != nil || c != NewClock(10, 50) {
		t.Fatalf("ParseClock with seconds: %v %v", c, err)
	}
	for _, bad := range []string{"", "9:00", "24:00", "10:60", "10:50:30", "ten"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestParseDateRejectsDatetime(t *testing.T) {
	if _, err := ParseDate("2026-01-05T10:00:00Z"); err == nil {
		t.Fatalf("datetime input must be rejected")
	}
}
