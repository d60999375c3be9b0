package timerules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock reading with minute precision, stored as minutes
// since midnight.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts HH:MM, or HH:MM:SS with zero seconds as Postgres
// renders TIME values.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 2 || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time %q: hour out of range", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: minute out of range", s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("invalid time %q: seconds are not supported", s)
	}
	return NewClock(h, m), nil
}

// ClockOf returns the wall-clock reading of t in loc, truncated to the minute.
func ClockOf(t time.Time, loc *time.Location) Clock {
	t = t.In(loc)
	return NewClock(t.Hour(), t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

func (c Clock) Duration() time.Duration {
	return time.Duration(c) * time.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
