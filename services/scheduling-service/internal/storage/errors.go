package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("storage: not found")
	// ErrStatusChanged means a compare-and-set on status lost to a
	// concurrent writer.
	ErrStatusChanged = errors.New("storage: appointment status changed")
	// ErrDuplicateBooking is the date-level uniqueness rule: one active
	// appointment per patient, professional and day.
	ErrDuplicateBooking = errors.New("storage: patient already booked with professional on this date")
	// ErrSlotTaken is the slot-level uniqueness rule.
	ErrSlotTaken = errors.New("storage: professional slot already taken")
)

const (
	constraintPatientDay       = "appointments_patient_professional_date_active_key"
	constraintProfessionalSlot = "appointments_professional_slot_active_key"

	pgUniqueViolation = "23505"
)

// classify maps driver errors to the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintPatientDay:
			return ErrDuplicateBooking
		case constraintProfessionalSlot:
			return ErrSlotTaken
		}
	}
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
