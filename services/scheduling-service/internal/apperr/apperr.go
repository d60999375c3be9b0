// Package apperr defines the typed errors the scheduling engine returns.
// Callers branch on Kind with errors.Is and read Reason for the exact rule.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindConflict
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

type Reason string

const (
	ReasonNotFound                Reason = "not_found"
	ReasonInvalidDate             Reason = "invalid_date"
	ReasonInvalidTime             Reason = "invalid_time"
	ReasonInvalidType             Reason = "invalid_type"
	ReasonNoAvailability          Reason = "no_availability"
	ReasonInsufficientNotice      Reason = "insufficient_notice"
	ReasonTooFarAhead             Reason = "too_far_ahead"
	ReasonDuplicateAppointment    Reason = "duplicate_appointment"
	ReasonSlotTaken               Reason = "slot_taken"
	ReasonInvalidStatusTransition Reason = "invalid_status_transition"
	ReasonAlreadyFinalized        Reason = "already_finalized"
	ReasonForbidden               Reason = "forbidden"
)

type Error struct {
	Kind    Kind
	Field   string
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches the kind sentinels below, so errors.Is(err, ErrValidation)
// holds for every validation failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != "" {
		return t.Kind == e.Kind && t.Reason == e.Reason
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrConflict   = &Error{Kind: KindConflict, Message: "conflict"}
	ErrForbidden  = &Error{Kind: KindForbidden, Message: "forbidden"}
)

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ReasonOf returns the reason of the first *Error in err's chain.
func ReasonOf(err error) Reason {
	if e, ok := As(err); ok {
		return e.Reason
	}
	return ""
}

func NotFound(what string, id int64) *Error {
	return &Error{Kind: KindNotFound, Reason: ReasonNotFound, Field: what, Message: fmt.Sprintf("%s %d not found", what, id)}
}

func Validation(field string, reason Reason, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Reason: reason, Message: msg}
}

func Conflict(field string, msg string) *Error {
	return &Error{Kind: KindConflict, Field: field, Reason: ReasonSlotTaken, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Reason: ReasonForbidden, Message: msg}
}

func InvalidDate(msg string) *Error {
	return Validation("date", ReasonInvalidDate, msg)
}

func InvalidTime(msg string) *Error {
	return Validation("time", ReasonInvalidTime, msg)
}

func NoAvailability() *Error {
	return Validation("time", ReasonNoAvailability, "professional has no availability at this time")
}

func InsufficientNotice(hours int) *Error {
	return Validation("time", ReasonInsufficientNotice, fmt.Sprintf("must be booked at least %d hours in advance", hours))
}

func TooFarAhead(days int) *Error {
	return Validation("date", ReasonTooFarAhead, fmt.Sprintf("cannot be booked more than %d days ahead", days))
}

func DuplicateAppointment() *Error {
	return Validation("conflict", ReasonDuplicateAppointment, "patient already has an appointment with this professional on this date")
}

func SlotTaken() *Error {
	return Conflict("time", "professional is not available at this time")
}

func InvalidStatusTransition(from, to string) *Error {
	return Validation("status", ReasonInvalidStatusTransition, fmt.Sprintf("cannot move appointment from %s to %s", from, to))
}

func AlreadyFinalized(status string) *Error {
	return Validation("status", ReasonAlreadyFinalized, fmt.Sprintf("appointment is already %s", status))
}
