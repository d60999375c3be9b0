// Package timerules holds the temporal predicates every booking decision is
// built from. Nothing here reads the wall clock; callers pass "now".
package timerules

import "time"

const (
	// SlotMinutes is the fixed consultation length. Valid start times sit on
	// a 50 minute grid anchored at 00:00.
	SlotMinutes = 50
	// BookingHorizonDays is how far ahead a booking may be placed.
	BookingHorizonDays = 90

	PresencialNoticeHours = 2
	OnlineNoticeHours     = 1
)

// SlotDuration is SlotMinutes as a time.Duration.
const SlotDuration = SlotMinutes * time.Minute

func IsNotSunday(d Date) bool {
	return d.Weekday() != time.Sunday
}

func IsValid50MinuteSlot(c Clock) bool {
	return c >= 0 && int(c)%SlotMinutes == 0
}

// IsMinimumHoursInFuture reports whether at is at least hours after now.
// The boundary is inclusive.
func IsMinimumHoursInFuture(at time.Time, hours int, now time.Time) bool {
	return at.Sub(now) >= time.Duration(hours)*time.Hour
}

// IsWithinDayRange reports whether d is at most maxDays calendar days after
// today. The boundary is inclusive.
func IsWithinDayRange(d Date, maxDays int, today Date) bool {
	return d.DaysSince(today) <= maxDays
}

// IsWithinMinimumHours applies IsMinimumHoursInFuture to a date and clock
// reading interpreted in loc.
func IsWithinMinimumHours(d Date, c Clock, minHours int, now time.Time, loc *time.Location) bool {
	return IsMinimumHoursInFuture(d.At(c, loc), minHours, now)
}

// IsFuture reports whether the slot starts strictly after now.
func IsFuture(d Date, c Clock, now time.Time, loc *time.Location) bool {
	return d.At(c, loc).After(now)
}
