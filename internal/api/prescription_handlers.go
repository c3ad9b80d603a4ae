package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/policy"
	"github.com/clinicdesk/clinic-api/internal/prescription"
)

type PrescriptionHandler struct {
	svc *prescription.Service
}

func NewPrescriptionHandler(svc *prescription.Service) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

func validateItems(fe FieldErrors, items []PrescriptionItemRequest) []prescription.ItemInput {
	if len(items) == 0 {
		fe.Add("items", "At least one prescription item is required.")
		return nil
	}
	out := make([]prescription.ItemInput, 0, len(items))
	for _, item := range items {
		if item.Medication == "" {
			fe.Add("items", "Every item needs a medication name.")
			return nil
		}
		out = append(out, prescription.ItemInput{
			Medication:   item.Medication,
			Dosage:       item.Dosage,
			Frequency:    item.Frequency,
			Duration:     item.Duration,
			Instructions: item.Instructions,
		})
	}
	return out
}

func (h *PrescriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionCreate, policy.EntityPrescription) {
		forbidden(w)
		return
	}

	var req PrescriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fe := FieldErrors{}
	visitID, err := uuid.Parse(req.VisitID)
	if err != nil {
		fe.Add("visit_id", "The visit id field is required.")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		fe.Add("patient_id", "The patient id field is required.")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		fe.Add("doctor_id", "The doctor id field is required.")
	}
	var status *prescription.Status
	if req.Status != nil {
		s, ok := prescription.ParseStatus(*req.Status)
		if !ok {
			fe.Add("status", "The selected status is invalid.")
		} else {
			status = &s
		}
	}
	items := validateItems(fe, req.Items)
	if len(fe) > 0 {
		writeValidation(w, fe)
		return
	}

	// a doctor writes prescriptions in their own name only
	if actor.IsDoctor() {
		if actor.DoctorID == nil || *actor.DoctorID != doctorID {
			forbidden(w)
			return
		}
	}

	p, err := h.svc.Create(r.Context(), prescription.CreateInput{
		VisitID:   visitID,
		PatientID: patientID,
		DoctorID:  doctorID,
		Diagnosis: req.Diagnosis,
		Status:    status,
		Notes:     req.Notes,
		Items:     items,
	}, actor.UserID)
	if err != nil {
		if errors.Is(err, prescription.ErrNoItems) {
			fieldError(w, "items", "At least one prescription item is required.")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPrescriptionResponse(p))
}

func (h *PrescriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionView, policy.EntityPrescription) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, prescription.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "prescription not found")
			return
		}
		internalError(w, err)
		return
	}

	if !policy.CanRecord(actor, policy.ActionView, policy.EntityPrescription, &p.DoctorID) {
		forbidden(w)
		return
	}

	writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
}

func (h *PrescriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionUpdate, policy.EntityPrescription) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	current, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, prescription.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "prescription not found")
			return
		}
		internalError(w, err)
		return
	}
	if !policy.CanRecord(actor, policy.ActionUpdate, policy.EntityPrescription, &current.DoctorID) {
		forbidden(w)
		return
	}

	var req PrescriptionUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fe := FieldErrors{}
	var status *prescription.Status
	if req.Status != nil {
		s, ok := prescription.ParseStatus(*req.Status)
		if !ok {
			fe.Add("status", "The selected status is invalid.")
		} else {
			status = &s
		}
	}
	var items []prescription.ItemInput
	if req.Items != nil {
		items = validateItems(fe, req.Items)
	}
	if len(fe) > 0 {
		writeValidation(w, fe)
		return
	}

	p, err := h.svc.Update(r.Context(), id, prescription.UpdateInput{
		Diagnosis: req.Diagnosis,
		Status:    status,
		Notes:     req.Notes,
		Items:     items,
	})
	if err != nil {
		switch {
		case errors.Is(err, prescription.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "prescription not found")
		case errors.Is(err, prescription.ErrNoItems):
			fieldError(w, "items", "At least one prescription item is required.")
		default:
			internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
}

func (h *PrescriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionDelete, policy.EntityPrescription) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, prescription.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "prescription not found")
			return
		}
		internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PrescriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionViewAny, policy.EntityPrescription) {
		forbidden(w)
		return
	}

	filter := prescription.ListFilter{
		DoctorID:  queryUUID(r, "doctor_id"),
		PatientID: queryUUID(r, "patient_id"),
		VisitID:   queryUUID(r, "visit_id"),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	}

	if actor.IsDoctor() {
		scope := policy.DoctorScope(actor, policy.EntityPrescription)
		if scope == nil {
			writeJSON(w, http.StatusOK, []PrescriptionResponse{})
			return
		}
		filter.DoctorID = scope
	}

	prescriptions, err := h.svc.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := make([]PrescriptionResponse, 0, len(prescriptions))
	for i := range prescriptions {
		resp = append(resp, toPrescriptionResponse(&prescriptions[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
