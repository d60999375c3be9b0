package model

import (
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/shopspring/decimal"
)

type AppointmentType string

const (
	TypePresencial AppointmentType = "presencial"
	TypeOnline     AppointmentType = "online"
)

func (t AppointmentType) Valid() bool {
	return t == TypePresencial || t == TypeOnline
}

// ReschedulingNoticeHours is the minimum lead time for moving an
// appointment of this type.
func (t AppointmentType) ReschedulingNoticeHours() int {
	if t == TypePresencial {
		return timerules.PresencialNoticeHours
	}
	return timerules.OnlineNoticeHours
}

// BookingNoticeHours is the minimum lead time for a new booking. Online
// consultations may be booked right up to their start.
func (t AppointmentType) BookingNoticeHours() int {
	if t == TypePresencial {
		return timerules.PresencialNoticeHours
	}
	return 0
}

type Status string

const (
	StatusScheduled          Status = "scheduled"
	StatusConfirmed          Status = "confirmed"
	StatusWaiting            Status = "waiting"
	StatusInProgress         Status = "in_progress"
	StatusCompleted          Status = "completed"
	StatusCancelledByPatient Status = "cancelled_by_patient"
	StatusCancelledByClinic  Status = "cancelled_by_clinic"
	StatusNoShow             Status = "no_show"
	StatusRescheduled        Status = "rescheduled"
)

func (s Status) IsCancelled() bool {
	return s == StatusCancelledByPatient || s == StatusCancelledByClinic
}

// IsFinal reports whether no further lifecycle operation applies.
func (s Status) IsFinal() bool {
	return s.IsCancelled() || s == StatusCompleted || s == StatusNoShow
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

type Appointment struct {
	ID                 int64
	PatientID          int64
	ProfessionalID     int64
	Date               timerules.Date
	Time               timerules.Clock
	Type               AppointmentType
	Status             Status
	PaymentStatus      PaymentStatus
	Price              decimal.NullDecimal
	CancellationReason *string
	CancelledBy        *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StartsAt is the appointment start in the clinic's zone.
func (a Appointment) StartsAt(loc *time.Location) time.Time {
	return a.Date.At(a.Time, loc)
}

// AvailabilityTemplate is one recurring weekly working window of a
// professional. Start is inclusive, End exclusive.
type AvailabilityTemplate struct {
	ID             int64
	ProfessionalID int64
	DayOfWeek      time.Weekday
	Start          timerules.Clock
	End            timerules.Clock
	IsActive       bool
}

type Slot struct {
	Date      timerules.Date  `json:"date"`
	Time      timerules.Clock `json:"time"`
	Available bool            `json:"available"`
}

// RefundDecision describes what the payment provider agreed to return.
type RefundDecision struct {
	Eligible   bool            `json:"eligible"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage int             `json:"percentage"`
}

// FeeDecision is the outcome of the rescheduling fee policy.
type FeeDecision struct {
	Applies bool            `json:"applies"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
}
