package model

import "testing"

func TestNoticeHoursByType(t *testing.T) {
	if got := TypePresencial.BookingNoticeHours(); got != 2 {
		t.Fatalf("presencial booking notice: got %d", got)
	}
	if got := TypeOnline.BookingNoticeHours(); got != 0 {
		t.Fatalf("online booking notice: got %d", got)
	}
	if got := TypeOnline.ReschedulingNoticeHours(); got != 1 {
		t.Fatalf("online reschedule notice: got %d", got)
	}
}

func TestStatusFinality(t *testing.T) {
	for _, s := range []Status{StatusCancelledByPatient, StatusCancelledByClinic, StatusCompleted, StatusNoShow} {
		if !s.IsFinal() {
			t.Fatalf("%s should be final", s)
		}
	}
	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusRescheduled, StatusWaiting, StatusInProgress} {
		if s.IsFinal() {
			t.Fatalf("%s should not be final", s)
		}
	}
}
