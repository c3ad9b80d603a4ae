package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/appointment"
	"github.com/clinicdesk/clinic-api/internal/auth"
	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/patient"
	"github.com/clinicdesk/clinic-api/internal/policy"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*appointment.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*appointment.Appointment)}
}

func (f *fakeAppointmentRepo) IsSlotBooked(_ context.Context, doctorID uuid.UUID, date jsontypes.Date, timeslot string, excludeID *uuid.UUID) (bool, error) {
	for _, a := range f.appointments {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Timeslot == timeslot && a.Status == appointment.StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentRepo) GetDetail(ctx context.Context, id uuid.UUID) (*appointment.Detail, error) {
	a, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &appointment.Detail{Appointment: *a}, nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, filter appointment.ListFilter) ([]appointment.Detail, error) {
	var out []appointment.Detail
	for _, a := range f.appointments {
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		out = append(out, appointment.Detail{Appointment: *a})
	}
	return out, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status appointment.Status) (*appointment.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.appointments[id]; !ok {
		return appointment.ErrNotFound
	}
	delete(f.appointments, id)
	return nil
}

type allPatients struct{}

func (allPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	return &patient.Patient{ID: id}, nil
}

type allDoctors struct{}

func (allDoctors) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return &doctor.Doctor{ID: id}, nil
}

type directLocker struct{}

func (directLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, _ jsontypes.Date, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newAppointmentRouter(repo *fakeAppointmentRepo) http.Handler {
	svc := appointment.NewService(repo, allPatients{}, allDoctors{}, directLocker{})
	h := NewAppointmentHandler(svc)

	r := chi.NewRouter()
	r.Get("/appointments", h.List)
	r.Post("/appointments", h.Create)
	r.Get("/appointments/{id}", h.Get)
	r.Patch("/appointments/{id}/status", h.UpdateStatus)
	r.Delete("/appointments/{id}", h.Delete)
	return r
}

func asActor(req *http.Request, actor policy.Actor) *http.Request {
	return req.WithContext(auth.WithActor(req.Context(), actor))
}

func receptionist() policy.Actor {
	return policy.Actor{UserID: uuid.New(), Role: policy.RoleReceptionist}
}

func bookingBody(doctorID uuid.UUID, timeslot string) string {
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	body, _ := json.Marshal(map[string]string{
		"patient_id":       uuid.NewString(),
		"doctor_id":        doctorID.String(),
		"appointment_date": date,
		"timeslot":         timeslot,
	})
	return string(body)
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	router := newAppointmentRouter(newFakeAppointmentRepo())

	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(uuid.New(), "09:00"))), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, "09:00", resp.Timeslot)
	assert.NotEqual(t, uuid.Nil, resp.ID)
}

func TestCreateAppointmentForbiddenForDoctor(t *testing.T) {
	router := newAppointmentRouter(newFakeAppointmentRepo())

	docActor := policy.Actor{UserID: uuid.New(), Role: policy.RoleDoctor}
	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(uuid.New(), "09:00"))), docActor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAppointmentValidation(t *testing.T) {
	router := newAppointmentRouter(newFakeAppointmentRepo())

	body := `{"patient_id":"", "doctor_id":"", "appointment_date":"not-a-date", "timeslot":"09:00-09:30xx"}`
	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "patient_id")
	assert.Contains(t, resp.Errors, "doctor_id")
	assert.Contains(t, resp.Errors, "appointment_date")
	assert.Contains(t, resp.Errors, "timeslot")
}

func TestCreateAppointmentSlotConflict(t *testing.T) {
	router := newAppointmentRouter(newFakeAppointmentRepo())
	doctorID := uuid.New()

	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(doctorID, "10:00"))), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(doctorID, "10:00"))), receptionist())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "timeslot")
}

func TestCreateAppointmentPastDate(t *testing.T) {
	router := newAppointmentRouter(newFakeAppointmentRepo())

	body, _ := json.Marshal(map[string]string{
		"patient_id":       uuid.NewString(),
		"doctor_id":        uuid.NewString(),
		"appointment_date": time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
		"timeslot":         "09:00",
	})
	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(string(body))), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "appointment_date")
}

func TestUpdateAppointmentStatusEndpoint(t *testing.T) {
	repo := newFakeAppointmentRepo()
	router := newAppointmentRouter(repo)
	doctorID := uuid.New()

	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(doctorID, "11:00"))), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req = asActor(httptest.NewRequest(http.MethodPatch, "/appointments/"+created.ID.String()+"/status",
		strings.NewReader(`{"status":"cancelled"}`)), receptionist())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "cancelled", updated.Status)
}

func TestUpdateAppointmentStatusRejectsUnknownValue(t *testing.T) {
	router := newAppointmentRouter(newFakeAppointmentRepo())

	req := asActor(httptest.NewRequest(http.MethodPatch, "/appointments/"+uuid.NewString()+"/status",
		strings.NewReader(`{"status":"rescheduled"}`)), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "status")
}

func TestGetAppointmentScopedToOwnDoctor(t *testing.T) {
	repo := newFakeAppointmentRepo()
	router := newAppointmentRouter(repo)
	ownID := uuid.New()
	otherID := uuid.New()

	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(otherID, "09:00"))), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	docActor := policy.Actor{UserID: uuid.New(), Role: policy.RoleDoctor, DoctorID: &ownID}
	req = asActor(httptest.NewRequest(http.MethodGet, "/appointments/"+created.ID.String(), nil), docActor)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	owner := policy.Actor{UserID: uuid.New(), Role: policy.RoleDoctor, DoctorID: &otherID}
	req = asActor(httptest.NewRequest(http.MethodGet, "/appointments/"+created.ID.String(), nil), owner)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListAppointmentsScopedToDoctor(t *testing.T) {
	repo := newFakeAppointmentRepo()
	router := newAppointmentRouter(repo)
	ownID := uuid.New()
	otherID := uuid.New()

	for _, docID := range []uuid.UUID{ownID, otherID} {
		req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(docID, "09:00"))), receptionist())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	docActor := policy.Actor{UserID: uuid.New(), Role: policy.RoleDoctor, DoctorID: &ownID}
	req := asActor(httptest.NewRequest(http.MethodGet, "/appointments", nil), docActor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, ownID, rows[0].DoctorID)

	// an explicit doctor_id filter does not widen the scope
	req = asActor(httptest.NewRequest(http.MethodGet, "/appointments?doctor_id="+otherID.String(), nil), docActor)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rows = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, ownID, rows[0].DoctorID)
}

func TestListAppointmentsUnlinkedDoctorSeesNothing(t *testing.T) {
	repo := newFakeAppointmentRepo()
	router := newAppointmentRouter(repo)

	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookingBody(uuid.New(), "09:00"))), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	unlinked := policy.Actor{UserID: uuid.New(), Role: policy.RoleDoctor}
	req = asActor(httptest.NewRequest(http.MethodGet, "/appointments", nil), unlinked)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Empty(t, rows)
}

func TestGetAppointmentNotFound(t *testing.T) {
	router := newAppointmentRouter(newFakeAppointmentRepo())

	req := asActor(httptest.NewRequest(http.MethodGet, "/appointments/"+uuid.NewString(), nil), receptionist())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
