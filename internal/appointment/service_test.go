package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/jsontypes"
	"github.com/clinicdesk/clinic-api/internal/patient"
	redisclient "github.com/clinicdesk/clinic-api/internal/redis"
)

type memoryRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *memoryRepo) IsSlotBooked(_ context.Context, doctorID uuid.UUID, date jsontypes.Date, timeslot string, excludeID *uuid.UUID) (bool, error) {
	for _, a := range m.appointments {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Timeslot == timeslot && a.Status == StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) Create(ctx context.Context, a *Appointment) error {
	booked, _ := m.IsSlotBooked(ctx, a.DoctorID, a.Date, a.Timeslot, nil)
	if booked && a.Status == StatusScheduled {
		return ErrSlotTaken
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = a
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Appointment: *a}, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Detail, error) {
	var out []Detail
	for _, a := range m.appointments {
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.Date != nil && !a.Date.Equal(*filter.Date) {
			continue
		}
		out = append(out, Detail{Appointment: *a})
	}
	return out, nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

// passLocker runs the critical section without any real locking.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, _ jsontypes.Date, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// busyLocker simulates another request holding the slot lock.
type busyLocker struct{}

func (busyLocker) WithSlotLock(context.Context, uuid.UUID, jsontypes.Date, string, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type staticPatients struct{ known map[uuid.UUID]bool }

func (s staticPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if !s.known[id] {
		return nil, patient.ErrNotFound
	}
	return &patient.Patient{ID: id}, nil
}

type staticDoctors struct{ known map[uuid.UUID]bool }

func (s staticDoctors) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	if !s.known[id] {
		return nil, doctor.ErrNotFound
	}
	return &doctor.Doctor{ID: id}, nil
}

type fixture struct {
	svc       *Service
	repo      *memoryRepo
	patientID uuid.UUID
	doctorID  uuid.UUID
	actorID   uuid.UUID
}

func newFixture(t *testing.T, locker redisclient.Locker) fixture {
	t.Helper()
	repo := newMemoryRepo()
	patientID := uuid.New()
	doctorID := uuid.New()

	svc := NewService(repo,
		staticPatients{known: map[uuid.UUID]bool{patientID: true}},
		staticDoctors{known: map[uuid.UUID]bool{doctorID: true}},
		locker,
	)
	return fixture{svc: svc, repo: repo, patientID: patientID, doctorID: doctorID, actorID: uuid.New()}
}

func tomorrow() jsontypes.Date {
	return jsontypes.NewDate(time.Now().AddDate(0, 0, 1))
}

func TestCreateBooksSlot(t *testing.T) {
	f := newFixture(t, passLocker{})

	appt, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      tomorrow(),
		Timeslot:  "09:00",
	}, f.actorID)
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, appt.Status)
	require.NotNil(t, appt.CreatedBy)
	assert.Equal(t, f.actorID, *appt.CreatedBy)
	assert.NotEqual(t, uuid.Nil, appt.ID)
}

func TestCreateRejectsPastDate(t *testing.T) {
	f := newFixture(t, passLocker{})

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      jsontypes.NewDate(time.Now().AddDate(0, 0, -1)),
		Timeslot:  "09:00",
	}, f.actorID)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestCreateAcceptsToday(t *testing.T) {
	f := newFixture(t, passLocker{})

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      jsontypes.Today(),
		Timeslot:  "09:00",
	}, f.actorID)
	assert.NoError(t, err)
}

func TestCreateRejectsUnknownPatientAndDoctor(t *testing.T) {
	f := newFixture(t, passLocker{})

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      tomorrow(),
		Timeslot:  "09:00",
	}, f.actorID)
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  uuid.New(),
		Date:      tomorrow(),
		Timeslot:  "09:00",
	}, f.actorID)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestCreateRejectsDoubleBooking(t *testing.T) {
	f := newFixture(t, passLocker{})
	date := tomorrow()

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      date,
		Timeslot:  "10:00",
	}, f.actorID)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      date,
		Timeslot:  "10:00",
	}, f.actorID)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// a different slot the same day is fine
	_, err = f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      date,
		Timeslot:  "10:30",
	}, f.actorID)
	assert.NoError(t, err)
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	f := newFixture(t, passLocker{})
	date := tomorrow()

	appt, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      date,
		Timeslot:  "11:00",
	}, f.actorID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), appt.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      date,
		Timeslot:  "11:00",
	}, f.actorID)
	assert.NoError(t, err)
}

func TestCreateUnderContentionFailsFast(t *testing.T) {
	f := newFixture(t, busyLocker{})

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      tomorrow(),
		Timeslot:  "09:00",
	}, f.actorID)
	assert.ErrorIs(t, err, ErrSlotContended)
}

func TestUpdateStatusAllowsIrregularTransitions(t *testing.T) {
	f := newFixture(t, passLocker{})

	appt, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      tomorrow(),
		Timeslot:  "09:00",
	}, f.actorID)
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), appt.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	// completed back to scheduled is irregular but permitted
	updated, err = f.svc.UpdateStatus(context.Background(), appt.ID, StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, updated.Status)
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	f := newFixture(t, passLocker{})

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegularTransitions(t *testing.T) {
	assert.True(t, Regular(StatusScheduled, StatusCompleted))
	assert.True(t, Regular(StatusScheduled, StatusCancelled))
	assert.True(t, Regular(StatusScheduled, StatusNoShow))
	assert.False(t, Regular(StatusCompleted, StatusScheduled))
	assert.False(t, Regular(StatusCancelled, StatusCompleted))
	assert.False(t, Regular(StatusScheduled, StatusScheduled))
}
