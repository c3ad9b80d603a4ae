package api

import (
	"errors"
	"net/http"

	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/patient"
	"github.com/clinicdesk/clinic-api/internal/policy"
)

type PatientHandler struct {
	svc *patient.Service
}

func NewPatientHandler(svc *patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func (h *PatientHandler) validate(w http.ResponseWriter, req PatientRequest) (patient.CreateInput, bool) {
	fe := FieldErrors{}
	if req.FirstName == "" {
		fe.Add("first_name", "The first name field is required.")
	}
	if req.LastName == "" {
		fe.Add("last_name", "The last name field is required.")
	}
	if req.Phone == "" {
		fe.Add("phone", "The phone field is required.")
	}

	var dob *jsontypes.Date
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		d, err := jsontypes.ParseDate(*req.DateOfBirth)
		if err != nil {
			fe.Add("date_of_birth", "The date of birth is not a valid date.")
		} else {
			dob = &d
		}
	}

	if len(fe) > 0 {
		writeValidation(w, fe)
		return patient.CreateInput{}, false
	}

	return patient.CreateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Gender:      req.Gender,
		DateOfBirth: dob,
		Address:     req.Address,
	}, true
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionCreate, policy.EntityPatient) {
		forbidden(w)
		return
	}

	var req PatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := h.validate(w, req)
	if !ok {
		return
	}

	p, err := h.svc.Create(r.Context(), in, actor.UserID)
	if err != nil {
		if errors.Is(err, patient.ErrPhoneTaken) {
			fieldError(w, "phone", "The phone number is already registered.")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPatientResponse(p))
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionView, policy.EntityPatient) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "patient not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionUpdate, policy.EntityPatient) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req PatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := h.validate(w, req)
	if !ok {
		return
	}

	p, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, patient.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "patient not found")
		case errors.Is(err, patient.ErrPhoneTaken):
			fieldError(w, "phone", "The phone number is already registered.")
		default:
			internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionDelete, policy.EntityPatient) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "patient not found")
			return
		}
		internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("search"))
}

// Search backs the front desk typeahead; q matches name or phone.
func (h *PatientHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("q"))
}

func (h *PatientHandler) list(w http.ResponseWriter, r *http.Request, search string) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionViewAny, policy.EntityPatient) {
		forbidden(w)
		return
	}

	filter := patient.ListFilter{
		Search: search,
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	patients, err := h.svc.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := make([]PatientResponse, 0, len(patients))
	for i := range patients {
		resp = append(resp, toPatientResponse(&patients[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
