package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clinicops/clinic-portal/libs/auth"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/apperr"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/payments"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/validator"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

var (
	staffRoles    = []model.Role{model.RoleReceptionist, model.RoleClinicAdmin, model.RoleSystemAdmin}
	clinicalRoles = []model.Role{model.RoleHealthProfessional, model.RoleClinicAdmin, model.RoleSystemAdmin}
	frontRoles    = append([]model.Role{model.RoleHealthProfessional}, staffRoles...)
)

type AppointmentHandler struct {
	svc    *lifecycle.Service
	logger *slog.Logger
}

func NewAppointmentHandler(svc *lifecycle.Service, logger *slog.Logger) *AppointmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppointmentHandler{svc: svc, logger: logger}
}

// Routes returns the /api/v1 router. Every route requires a bearer token.
func (h *AppointmentHandler) Routes(v auth.Verifier) chi.Router {
	r := chi.NewRouter()
	r.Use(RequireAuth(v))

	r.Get("/professionals/{professionalID}/slots", h.Slots)
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{appointmentID}", func(r chi.Router) {
			r.Post("/cancel", h.Cancel)
			r.Post("/reschedule", h.Reschedule)
			r.With(RequireRole(frontRoles...)).Post("/confirm", h.transition(h.svc.Confirm))
			r.With(RequireRole(frontRoles...)).Post("/check-in", h.transition(h.svc.CheckIn))
			r.With(RequireRole(frontRoles...)).Post("/no-show", h.transition(h.svc.MarkNoShow))
			r.With(RequireRole(clinicalRoles...)).Post("/start", h.transition(h.svc.Start))
			r.With(RequireRole(clinicalRoles...)).Post("/complete", h.transition(h.svc.Complete))
		})
	})
	return r
}

type appointmentResponse struct {
	ID                 int64   `json:"id"`
	PatientID          int64   `json:"patient_id"`
	ProfessionalID     int64   `json:"professional_id"`
	Date               string  `json:"date"`
	Time               string  `json:"time"`
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	PaymentStatus      string  `json:"payment_status"`
	Price              string  `json:"price,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	CancelledBy        *int64  `json:"cancelled_by,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

func toResponse(a model.Appointment) appointmentResponse {
	out := appointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		ProfessionalID:     a.ProfessionalID,
		Date:               a.Date.String(),
		Time:               a.Time.String(),
		Type:               string(a.Type),
		Status:             string(a.Status),
		PaymentStatus:      string(a.PaymentStatus),
		CancellationReason: a.CancellationReason,
		CancelledBy:        a.CancelledBy,
		CreatedAt:          a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.Price.Valid {
		out.Price = a.Price.Decimal.StringFixed(2)
	}
	return out
}

type slotsResponse struct {
	ProfessionalID int64        `json:"professional_id"`
	Date           string       `json:"date"`
	Slots          []model.Slot `json:"slots"`
}

func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	professionalID, ok := pathID(w, r, "professionalID")
	if !ok {
		return
	}
	date, err := timerules.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, h.logger, apperr.InvalidDate("date must be YYYY-MM-DD"))
		return
	}
	slots, err := h.svc.OpenSlots(r.Context(), professionalID, date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{ProfessionalID: professionalID, Date: date.String(), Slots: slots})
}

type createAppointmentRequest struct {
	PatientID      int64            `json:"patient_id"`
	ProfessionalID int64            `json:"professional_id"`
	Date           string           `json:"date"`
	Time           string           `json:"time"`
	Type           string           `json:"type"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Card           *payments.Card   `json:"card,omitempty"`
}

type createAppointmentResponse struct {
	ID            int64  `json:"id"`
	Invoice       string `json:"invoice,omitempty"`
	PaymentStatus string `json:"payment_status"`
	Message       string `json:"message"`
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFrom(r)

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	switch c.Role {
	case model.RolePatient:
		if req.PatientID == 0 {
			req.PatientID = c.ID
		}
		if req.PatientID != c.ID {
			writeError(w, r, h.logger, apperr.Forbidden("patients may only book for themselves"))
			return
		}
	case model.RoleReceptionist, model.RoleClinicAdmin, model.RoleSystemAdmin:
	default:
		writeError(w, r, h.logger, apperr.Forbidden("not allowed to book appointments"))
		return
	}
	if req.PatientID <= 0 || req.ProfessionalID <= 0 {
		badRequest(w, "patient_id and professional_id required")
		return
	}

	booking, err := parseSlot(req.Date, req.Time)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in := lifecycle.ScheduleRequest{
		BookingRequest: validator.BookingRequest{
			PatientID:      req.PatientID,
			ProfessionalID: req.ProfessionalID,
			Date:           booking.date,
			Time:           booking.at,
			Type:           model.AppointmentType(strings.ToLower(strings.TrimSpace(req.Type))),
		},
		Card: req.Card,
	}
	if req.Price != nil {
		in.Price = decimal.NewNullDecimal(*req.Price)
	}

	res, err := h.svc.Schedule(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createAppointmentResponse{
		ID:            res.Appointment.ID,
		Invoice:       res.Invoice,
		PaymentStatus: string(res.Appointment.PaymentStatus),
		Message:       res.Message,
	})
}

func (h *AppointmentHandler) transition(fn func(context.Context, int64) (model.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "appointmentID")
		if !ok {
			return
		}
		appt, err := fn(r.Context(), id)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(appt))
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type cancelResponse struct {
	Message       string                `json:"message"`
	Appointment   appointmentResponse   `json:"appointment"`
	RefundDetails *model.RefundDecision `json:"refund_details,omitempty"`
	Error         string                `json:"error,omitempty"`
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "appointmentID")
	if !ok {
		return
	}
	c, _ := callerFrom(r)
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid json body")
			return
		}
	}

	res, err := h.svc.Cancel(r.Context(), id, req.Reason, c.ID)
	if errors.Is(err, lifecycle.ErrRefundFailed) {
		writeJSON(w, http.StatusBadGateway, cancelResponse{
			Message:     res.Message,
			Appointment: toResponse(res.Appointment),
			Error:       "refund failed",
		})
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{
		Message:       res.Message,
		Appointment:   toResponse(res.Appointment),
		RefundDetails: res.Refund,
	})
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type rescheduleResponse struct {
	Appointment appointmentResponse `json:"appointment"`
	Fee         model.FeeDecision   `json:"fee"`
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "appointmentID")
	if !ok {
		return
	}
	c, _ := callerFrom(r)
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	slot, err := parseSlot(req.Date, req.Time)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Reschedule(r.Context(), lifecycle.RescheduleRequest{
		AppointmentID: id,
		ActorID:       c.ID,
		Date:          slot.date,
		Time:          slot.at,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rescheduleResponse{Appointment: toResponse(res.Appointment), Fee: res.Fee})
}

type slot struct {
	date timerules.Date
	at   timerules.Clock
}

func parseSlot(date, at string) (slot, error) {
	d, err := timerules.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return slot{}, apperr.InvalidDate("date must be YYYY-MM-DD")
	}
	c, err := timerules.ParseClock(strings.TrimSpace(at))
	if err != nil {
		return slot{}, apperr.InvalidTime("time must be HH:MM")
	}
	return slot{date: d, at: c}, nil
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid "+strings.TrimSuffix(name, "ID")+" id")
		return 0, false
	}
	return id, true
}
