package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("schedule: %w", InsufficientNotice(2))

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation kind to match")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("validation must not match conflict")
	}
	if got := ReasonOf(err); got != ReasonInsufficientNotice {
		t.Fatalf("unexpected reason %q", got)
	}
	e, ok := As(err)
	if !ok || e.Field != "time" {
		t.Fatalf("expected field time, got %+v", e)
	}
}

func TestReasonSentinel(t *testing.T) {
	target := &Error{Kind: KindValidation, Reason: ReasonDuplicateAppointment}
	if !errors.Is(DuplicateAppointment(), target) {
		t.Fatalf("expected reason-level match")
	}
	if errors.Is(TooFarAhead(90), target) {
		t.Fatalf("different reason must not match")
	}
}

func TestSlotTakenIsConflictOnTime(t *testing.T) {
	err := SlotTaken()
	if !errors.Is(err, ErrConflict) || err.Field != "time" {
		t.Fatalf("unexpected slot taken error %+v", err)
	}
}
