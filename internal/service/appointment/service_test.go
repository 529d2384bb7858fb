package appointment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) AppointmentChanged(ctx context.Context, event *model.AppointmentEvent) error {
	return m.Called(ctx, event).Error(0)
}

type fixture struct {
	svc      *Service
	store    *repository.Store
	notifier *mockNotifier
	doctor   *model.User
	other    *model.User
	patient  *model.User
	admin    model.Actor
}

func (f *fixture) patientActor() model.Actor {
	return model.Actor{ID: f.patient.ID, Role: model.RolePatient}
}

func (f *fixture) doctorActor() model.Actor {
	return model.Actor{ID: f.doctor.ID, Role: model.RoleDoctor}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f := &fixture{store: store, notifier: &mockNotifier{}}
	f.doctor = &model.User{Name: "Dr. Alice", Username: "dr1", Role: model.RoleDoctor}
	f.other = &model.User{Name: "Dr. Bob", Username: "dr2", Role: model.RoleDoctor}
	f.patient = &model.User{Name: "Carol", Username: "carol", Role: model.RolePatient}
	admin := &model.User{Name: "Administrator", Username: "admin", Role: model.RoleAdmin}
	for _, u := range []*model.User{f.doctor, f.other, f.patient, admin} {
		require.NoError(t, store.Users.Create(ctx, u))
	}
	f.admin = model.Actor{ID: admin.ID, Role: model.RoleAdmin}

	f.notifier.On("AppointmentChanged", mock.Anything, mock.Anything).Return(nil)
	f.svc = NewService(store.Users, store.Appointments, f.notifier, nil, nil)
	return f
}

func TestBookAndDoubleBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "20/05/2025", "08:00")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusBooked, apt.Status)
	assert.Equal(t, "2025-05-20", apt.Date)
	assert.Equal(t, "08:00", apt.Time)

	// same slot in the other date form is the same slot
	_, err = f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrSlotConflict)

	related, err := f.store.Relations.Exists(ctx, f.doctor.ID, f.patient.ID)
	require.NoError(t, err)
	assert.True(t, related)

	f.notifier.AssertNumberOfCalls(t, "AppointmentChanged", 1)
}

func TestBookDefaultsPatientToActor(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.patientActor(), f.doctor.ID, 0, "2025-05-20", "04:00")
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, apt.PatientID)
}

func TestBookAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &model.User{Name: "Dan", Username: "dan", Role: model.RolePatient}
	require.NoError(t, f.store.Users.Create(ctx, other))

	_, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, other.ID, "2025-05-20", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Book(ctx, f.doctorActor(), f.other.ID, f.patient.ID, "2025-05-20", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Book(ctx, f.doctorActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	assert.NoError(t, err)

	_, err = f.svc.Book(ctx, f.admin, f.other.ID, other.ID, "2025-05-20", "08:00")
	assert.NoError(t, err)
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		doctorID int64
		patient  int64
		date     string
		clock    string
		want     error
	}{
		{"bad date", f.doctor.ID, f.patient.ID, "2025/20/05", "08:00", apperrors.ErrInvalidDateTime},
		{"bad time", f.doctor.ID, f.patient.ID, "2025-05-20", "8am", apperrors.ErrInvalidDateTime},
		{"unknown doctor", 999, f.patient.ID, "2025-05-20", "08:00", apperrors.ErrNotFound},
		{"doctor is not a doctor", f.patient.ID, f.patient.ID, "2025-05-20", "08:00", apperrors.ErrNotFound},
		{"patient is a doctor", f.doctor.ID, f.other.ID, "2025-05-20", "08:00", apperrors.ErrNotFound},
		{"missing doctor", 0, f.patient.ID, "2025-05-20", "08:00", apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(ctx, f.admin, tt.doctorID, tt.patient, tt.date, tt.clock)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCancelThenRebook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, f.patientActor(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	// second cancel is a no-op
	_, err = f.svc.Cancel(ctx, f.patientActor(), apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, f.patientActor(), apt.ID, "2025-05-21", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCancelOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)

	stranger := model.Actor{ID: f.patient.ID + 100, Role: model.RolePatient}
	_, err = f.svc.Cancel(ctx, stranger, apt.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Cancel(ctx, f.patientActor(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Cancel(ctx, f.doctorActor(), apt.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Cancel(ctx, f.admin, apt.ID)
	assert.NoError(t, err)
}

func TestCancelCompletedIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.doctorActor(), apt.ID, "flu", "rest")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.patientActor(), apt.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)
	b, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-21", "08:00")
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, f.patientActor(), a.ID, "21/05/2025", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrSlotConflict)

	moved, err := f.svc.Reschedule(ctx, f.patientActor(), a.ID, "22/05/2025", "04:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-05-22", moved.Date)
	assert.Equal(t, "04:00", moved.Time)
	assert.Equal(t, model.AppointmentStatusBooked, moved.Status)

	// the old slot is free again
	_, err = f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)

	stranger := model.Actor{ID: f.patient.ID + 100, Role: model.RolePatient}
	_, err = f.svc.Reschedule(ctx, stranger, b.ID, "2025-05-23", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Reschedule(ctx, f.patientActor(), b.ID, "not a date", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDateTime)

	var lastEvent *model.AppointmentEvent
	for _, call := range f.notifier.Calls {
		lastEvent = call.Arguments.Get(1).(*model.AppointmentEvent)
	}
	require.NotNil(t, lastEvent)
	assert.Equal(t, model.EventAppointmentBooked, lastEvent.Type)
}

func TestRescheduleEventCarriesPreviousSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, f.patientActor(), a.ID, "2025-05-22", "04:00")
	require.NoError(t, err)

	f.notifier.AssertCalled(t, "AppointmentChanged", mock.Anything, mock.MatchedBy(func(e *model.AppointmentEvent) bool {
		return e.Type == model.EventAppointmentRescheduled &&
			e.PrevDate == "2025-05-20" && e.PrevTime == "08:00" &&
			e.Appointment.Date == "2025-05-22" && e.Appointment.Time == "04:00"
	}))
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2099-05-20", "08:00")
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, model.Actor{ID: f.other.ID, Role: model.RoleDoctor}, apt.ID, "x", "y")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.svc.Complete(ctx, f.admin, apt.ID, "x", "y")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.svc.Complete(ctx, f.doctorActor(), 9999, "x", "y")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// completing ahead of the visit time is allowed
	done, err := f.svc.Complete(ctx, f.doctorActor(), apt.ID, "Hypertension", "Amlodipine 5mg")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)

	stored, err := f.store.Appointments.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hypertension", *stored.Diagnosis)
	assert.Equal(t, "Amlodipine 5mg", *stored.Prescription)

	// a completed appointment no longer blocks the slot
	_, err = f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2099-05-20", "08:00")
	require.NoError(t, err)
}

func TestCompleteCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.patientActor(), apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.doctorActor(), apt.ID, "x", "y")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetAndListVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-21", "08:00")
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "04:00")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, model.Actor{ID: f.other.ID, Role: model.RoleDoctor}, apt.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.svc.Get(ctx, f.doctorActor(), apt.ID)
	assert.NoError(t, err)

	mine, err := f.svc.ListForDoctor(ctx, f.doctor.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2025-05-20", mine[0].Date)

	theirs, err := f.svc.ListForDoctor(ctx, f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	// patients cannot widen their filter
	list, err := f.svc.List(ctx, f.patientActor(), &model.AppointmentFilters{PatientID: 12345})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestNotifierFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	notifier := &mockNotifier{}
	notifier.On("AppointmentChanged", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	svc := NewService(f.store.Users, f.store.Appointments, notifier, nil, nil)

	_, err := svc.Book(context.Background(), f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	assert.NoError(t, err)
	notifier.AssertExpectations(t)
}

type racingRepo struct {
	repository.AppointmentRepository
}

func (racingRepo) IsSlotBooked(context.Context, int64, string, string, *int64) (bool, error) {
	return false, nil
}

func (racingRepo) Book(context.Context, *model.Appointment) error {
	return repository.ErrSlotTaken
}

func TestStoreConflictMapsToSlotConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store.Users, racingRepo{f.store.Appointments}, nil, nil, nil)

	_, err := svc.Book(context.Background(), f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	assert.ErrorIs(t, err, apperrors.ErrSlotConflict)
}

// interleavedRepo runs between once, right after the first Get, to stand in
// for a request that lands between a read and the following write.
type interleavedRepo struct {
	repository.AppointmentRepository
	between func()
}

func (r *interleavedRepo) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	apt, err := r.AppointmentRepository.Get(ctx, id)
	if r.between != nil {
		fn := r.between
		r.between = nil
		fn()
	}
	return apt, err
}

func TestCompleteDoesNotOverwriteConcurrentCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)

	repo := &interleavedRepo{AppointmentRepository: f.store.Appointments}
	svc := NewService(f.store.Users, repo, f.notifier, nil, nil)
	repo.between = func() {
		_, err := f.svc.Cancel(ctx, f.patientActor(), apt.ID)
		require.NoError(t, err)
	}

	_, err = svc.Complete(ctx, f.doctorActor(), apt.ID, "flu", "rest")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	got, err := f.store.Appointments.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
	assert.Nil(t, got.Diagnosis)
}

func TestCancelDoesNotOverwriteConcurrentComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)

	repo := &interleavedRepo{AppointmentRepository: f.store.Appointments}
	svc := NewService(f.store.Users, repo, f.notifier, nil, nil)
	repo.between = func() {
		_, err := f.svc.Complete(ctx, f.doctorActor(), apt.ID, "flu", "rest")
		require.NoError(t, err)
	}

	_, err = svc.Cancel(ctx, f.patientActor(), apt.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	got, err := f.store.Appointments.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)
	require.NotNil(t, got.Diagnosis)
	assert.Equal(t, "flu", *got.Diagnosis)
}

func TestRescheduleAfterConcurrentCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.patientActor(), f.doctor.ID, f.patient.ID, "2025-05-20", "08:00")
	require.NoError(t, err)

	repo := &interleavedRepo{AppointmentRepository: f.store.Appointments}
	svc := NewService(f.store.Users, repo, f.notifier, nil, nil)
	repo.between = func() {
		_, err := f.svc.Cancel(ctx, f.patientActor(), apt.ID)
		require.NoError(t, err)
	}

	_, err = svc.Reschedule(ctx, f.patientActor(), apt.ID, "2025-05-22", "04:00")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	got, err := f.store.Appointments.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-20", got.Date)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
}
