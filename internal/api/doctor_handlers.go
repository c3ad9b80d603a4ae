package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/policy"
)

type DoctorHandler struct {
	svc *doctor.Service
}

func NewDoctorHandler(svc *doctor.Service) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

func (h *DoctorHandler) validate(w http.ResponseWriter, req DoctorRequest) (doctor.Input, bool) {
	fe := FieldErrors{}
	if req.Name == "" {
		fe.Add("name", "The name field is required.")
	}

	var userID *uuid.UUID
	if req.UserID != nil && *req.UserID != "" {
		id, err := uuid.Parse(*req.UserID)
		if err != nil {
			fe.Add("user_id", "The user id is not a valid uuid.")
		} else {
			userID = &id
		}
	}

	if len(fe) > 0 {
		writeValidation(w, fe)
		return doctor.Input{}, false
	}

	return doctor.Input{
		Name:           req.Name,
		Specialization: req.Specialization,
		Phone:          req.Phone,
		Email:          req.Email,
		UserID:         userID,
	}, true
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionCreate, policy.EntityDoctor) {
		forbidden(w)
		return
	}

	var req DoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := h.validate(w, req)
	if !ok {
		return
	}

	d, err := h.svc.Create(r.Context(), in)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDoctorResponse(d))
}

func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionView, policy.EntityDoctor) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "doctor not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDoctorResponse(d))
}

func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionUpdate, policy.EntityDoctor) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req DoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := h.validate(w, req)
	if !ok {
		return
	}

	d, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "doctor not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDoctorResponse(d))
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionDelete, policy.EntityDoctor) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "doctor not found")
			return
		}
		internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionViewAny, policy.EntityDoctor) {
		forbidden(w)
		return
	}

	doctors, err := h.svc.List(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		internalError(w, err)
		return
	}

	resp := make([]DoctorResponse, 0, len(doctors))
	for i := range doctors {
		resp = append(resp, toDoctorResponse(&doctors[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
