package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/invoice"
	"github.com/clinicdesk/clinic-api/internal/policy"
	"github.com/clinicdesk/clinic-api/internal/visit"
)

type InvoiceHandler struct {
	svc *invoice.Service
}

func NewInvoiceHandler(svc *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionCreate, policy.EntityInvoice) {
		forbidden(w)
		return
	}

	var req InvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fe := FieldErrors{}
	visitID, err := uuid.Parse(req.VisitID)
	if err != nil {
		fe.Add("visit_id", "The visit id field is required.")
	}
	if req.Discount < 0 {
		fe.Add("discount", "The discount may not be negative.")
	}
	var method *invoice.PaymentMethod
	if req.PaymentMethod != nil && *req.PaymentMethod != "" {
		m, ok := invoice.ParsePaymentMethod(*req.PaymentMethod)
		if !ok {
			fe.Add("payment_method", "The selected payment method is invalid.")
		} else {
			method = &m
		}
	}
	if len(req.Items) == 0 {
		fe.Add("items", "At least one invoice item is required.")
	}
	items := make([]invoice.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Description == "" {
			fe.Add("items", "Every item needs a description.")
			break
		}
		if item.Quantity <= 0 {
			fe.Add("items", "Every item needs a positive quantity.")
			break
		}
		if item.UnitPrice < 0 {
			fe.Add("items", "Unit prices may not be negative.")
			break
		}
		items = append(items, invoice.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	if len(fe) > 0 {
		writeValidation(w, fe)
		return
	}

	inv, err := h.svc.Create(r.Context(), invoice.CreateInput{
		VisitID:       visitID,
		Discount:      req.Discount,
		PaymentMethod: method,
		Items:         items,
	}, actor.UserID)
	if err != nil {
		switch {
		case errors.Is(err, visit.ErrNotFound):
			fieldError(w, "visit_id", "The selected visit does not exist.")
		case errors.Is(err, invoice.ErrNoItems):
			fieldError(w, "items", "At least one invoice item is required.")
		default:
			internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

func (h *InvoiceHandler) Pay(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionUpdate, policy.EntityInvoice) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req InvoicePayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	method, ok := invoice.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		fieldError(w, "payment_method", "The selected payment method is invalid.")
		return
	}

	inv, err := h.svc.Pay(r.Context(), id, method)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "invoice not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionView, policy.EntityInvoice) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	inv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "invoice not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionDelete, policy.EntityInvoice) {
		forbidden(w)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "invoice not found")
			return
		}
		internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !policy.Can(actor, policy.ActionViewAny, policy.EntityInvoice) {
		forbidden(w)
		return
	}

	filter := invoice.ListFilter{
		PatientID: queryUUID(r, "patient_id"),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	}
	if raw := r.URL.Query().Get("payment_status"); raw != "" {
		status := invoice.PaymentStatus(raw)
		if status != invoice.PaymentStatusPaid && status != invoice.PaymentStatusUnpaid {
			fieldError(w, "payment_status", "The selected payment status is invalid.")
			return
		}
		filter.PaymentStatus = &status
	}

	invoices, err := h.svc.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, toInvoiceResponse(&invoices[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
