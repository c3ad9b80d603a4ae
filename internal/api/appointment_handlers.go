package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/appointment"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/policy"
)

const maxTimeslotLen = 10

type AppointmentHandler struct {
	svc *appointment.Service
}

func NewAppointmentHandler(svc *appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionCreate, policy.EntityAppointment) {
		forbidden(w)
		return
	}

	var req AppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fe := FieldErrors{}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		fe.Add("patient_id", "The patient id field is required.")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		fe.Add("doctor_id", "The doctor id field is required.")
	}
	date, err := jsontypes.ParseDate(req.Date)
	if err != nil {
		fe.Add("appointment_date", "The appointment date is not a valid date.")
	}
	if req.Timeslot == "" {
		fe.Add("timeslot", "The timeslot field is required.")
	} else if len(req.Timeslot) > maxTimeslotLen {
		fe.Add("timeslot", "The timeslot may not be greater than 10 characters.")
	}
	if len(fe) > 0 {
		writeValidation(w, fe)
		return
	}

	appt, err := h.svc.Create(r.Context(), appointment.CreateInput{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Timeslot:  req.Timeslot,
		Notes:     req.Notes,
	}, actor.UserID)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrPatientNotFound):
			fieldError(w, "patient_id", "The selected patient does not exist.")
		case errors.Is(err, appointment.ErrDoctorNotFound):
			fieldError(w, "doctor_id", "The selected doctor does not exist.")
		case errors.Is(err, appointment.ErrPastDate):
			fieldError(w, "appointment_date", "The appointment date must be today or later.")
		case errors.Is(err, appointment.ErrSlotTaken):
			fieldError(w, "timeslot", "This timeslot is already booked for the selected doctor.")
		case errors.Is(err, appointment.ErrSlotContended):
			writeError(w, http.StatusConflict, "slot_contended", "this slot is being booked by another request, please retry")
		default:
			internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionView, policy.EntityAppointment) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "appointment not found")
			return
		}
		internalError(w, err)
		return
	}

	if !policy.CanRecord(actor, policy.ActionView, policy.EntityAppointment, &d.DoctorID) {
		forbidden(w)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentDetailResponse(d))
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionUpdate, policy.EntityAppointment) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req AppointmentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, ok := appointment.ParseStatus(req.Status)
	if !ok {
		fieldError(w, "status", "The selected status is invalid.")
		return
	}

	appt, err := h.svc.UpdateStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "appointment not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionDelete, policy.EntityAppointment) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "appointment not found")
			return
		}
		internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionViewAny, policy.EntityAppointment) {
		forbidden(w)
		return
	}

	filter := appointment.ListFilter{
		DoctorID: queryUUID(r, "doctor_id"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := jsontypes.ParseDate(raw)
		if err != nil {
			fieldError(w, "date", "The date filter is not a valid date.")
			return
		}
		filter.Date = &d
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := appointment.ParseStatus(raw)
		if !ok {
			fieldError(w, "status", "The selected status is invalid.")
			return
		}
		filter.Status = &status
	}

	if actor.IsDoctor() {
		scope := policy.DoctorScope(actor, policy.EntityAppointment)
		if scope == nil {
			writeJSON(w, http.StatusOK, []AppointmentResponse{})
			return
		}
		filter.DoctorID = scope
	}

	appointments, err := h.svc.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := make([]AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		resp = append(resp, toAppointmentDetailResponse(&appointments[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
