package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/appointment"
	"github.com/clinicdesk/clinic-api/internal/policy"
	"github.com/clinicdesk/clinic-api/internal/visit"
)

type VisitHandler struct {
	svc *visit.Service
}

func NewVisitHandler(svc *visit.Service) *VisitHandler {
	return &VisitHandler{svc: svc}
}

// ConvertFromAppointment turns a scheduled appointment into a visit. The first
// call creates and returns 201; repeat calls return the same visit with 200.
func (h *VisitHandler) ConvertFromAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionCreate, policy.EntityVisit) {
		forbidden(w)
		return
	}

	appointmentID, ok := idParam(w, r, "appointmentId")
	if !ok {
		return
	}

	v, created, err := h.svc.CreateFromAppointment(r.Context(), appointmentID, actor.UserID)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "appointment not found")
		case errors.Is(err, visit.ErrNotConvertible):
			writeError(w, http.StatusUnprocessableEntity, "not_convertible", "only scheduled appointments can be converted to visits")
		default:
			internalError(w, err)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, ConversionResponse{Visit: toVisitResponse(v), Created: created})
}

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionCreate, policy.EntityVisit) {
		forbidden(w)
		return
	}

	var req VisitRequest
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
	if len(fe) > 0 {
		writeValidation(w, fe)
		return
	}

	v, err := h.svc.Create(r.Context(), visit.CreateInput{
		PatientID: patientID,
		DoctorID:  doctorID,
		Symptoms:  req.Symptoms,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
		VisitDate: req.VisitDate,
	}, actor.UserID)
	if err != nil {
		switch {
		case errors.Is(err, visit.ErrPatientNotFound):
			fieldError(w, "patient_id", "The selected patient does not exist.")
		case errors.Is(err, visit.ErrDoctorNotFound):
			fieldError(w, "doctor_id", "The selected doctor does not exist.")
		default:
			internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toVisitResponse(v))
}

func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionView, policy.EntityVisit) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, visit.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "visit not found")
			return
		}
		internalError(w, err)
		return
	}

	if !policy.CanRecord(actor, policy.ActionView, policy.EntityVisit, &d.DoctorID) {
		forbidden(w)
		return
	}

	writeJSON(w, http.StatusOK, toVisitDetailResponse(d))
}

func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionUpdate, policy.EntityVisit) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	current, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, visit.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "visit not found")
			return
		}
		internalError(w, err)
		return
	}
	if !policy.CanRecord(actor, policy.ActionUpdate, policy.EntityVisit, &current.DoctorID) {
		forbidden(w)
		return
	}

	var req VisitUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.svc.Update(r.Context(), id, visit.UpdateInput{
		Symptoms:  req.Symptoms,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
		VisitDate: req.VisitDate,
	})
	if err != nil {
		if errors.Is(err, visit.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "visit not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVisitResponse(v))
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionDelete, policy.EntityVisit) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, visit.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "visit not found")
			return
		}
		internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionViewAny, policy.EntityVisit) {
		forbidden(w)
		return
	}

	filter := visit.ListFilter{
		DoctorID:  queryUUID(r, "doctor_id"),
		PatientID: queryUUID(r, "patient_id"),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	}

	if actor.IsDoctor() {
		scope := policy.DoctorScope(actor, policy.EntityVisit)
		if scope == nil {
			writeJSON(w, http.StatusOK, []VisitResponse{})
			return
		}
		filter.DoctorID = scope
	}

	visits, err := h.svc.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := make([]VisitResponse, 0, len(visits))
	for i := range visits {
		resp = append(resp, toVisitDetailResponse(&visits[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
