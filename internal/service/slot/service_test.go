package slot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/internal/service/appointment"
	"github.com/jwalitptl/hms-api/pkg/errors"
)

// Saturday 17 May 2025, mid-morning.
var reference = time.Date(2025, 5, 17, 10, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *repository.Store, *model.User, *model.User) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	doctor := &model.User{Name: "Dr. Alice", Username: "dr1", Role: model.RoleDoctor}
	patient := &model.User{Name: "Bob", Username: "bob", Role: model.RolePatient}
	require.NoError(t, store.Users.Create(ctx, doctor))
	require.NoError(t, store.Users.Create(ctx, patient))

	svc := NewService(store.Users, store.Appointments,
		WithClock(func() time.Time { return reference }),
		WithLocation(time.UTC),
	)
	return svc, store, doctor, patient
}

func TestWindowDatesSkipsSunday(t *testing.T) {
	dates := WindowDates(reference, 0)
	require.Len(t, dates, 6)
	for _, d := range dates {
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
	assert.Equal(t, "2025-05-17", dates[0].Format("2006-01-02"))
	assert.Equal(t, "2025-05-19", dates[1].Format("2006-01-02"))
	assert.Equal(t, "2025-05-23", dates[5].Format("2006-01-02"))
}

func TestDoctorScheduleStartsToday(t *testing.T) {
	svc, _, doctor, _ := setup(t)

	schedule, err := svc.DoctorSchedule(context.Background(), doctor.ID)
	require.NoError(t, err)

	assert.Equal(t, "2025-05-17", schedule.From)
	assert.Equal(t, "2025-05-23", schedule.To)
	require.Len(t, schedule.Days, 6)
	for _, day := range schedule.Days {
		require.Len(t, day.Slots, 2)
		assert.Equal(t, "08:00", day.Slots[0].Start)
		assert.Equal(t, "12:00", day.Slots[0].End)
		assert.Equal(t, "04:00", day.Slots[1].Start)
		assert.Equal(t, "09:00", day.Slots[1].End)
		assert.True(t, day.Slots[0].Available)
		assert.True(t, day.Slots[1].Available)
		assert.NotEqual(t, "Sunday", day.Weekday)
	}
}

func TestPatientAvailabilityStartsTomorrow(t *testing.T) {
	svc, _, doctor, _ := setup(t)

	schedule, err := svc.PatientAvailability(context.Background(), doctor.ID)
	require.NoError(t, err)

	// tomorrow is Sunday, so the first offered day is Monday
	assert.Equal(t, "2025-05-19", schedule.From)
	assert.Equal(t, "2025-05-24", schedule.To)
	assert.Len(t, schedule.Days, 6)
}

func TestBookedSlotsAreMarked(t *testing.T) {
	ctx := context.Background()
	svc, store, doctor, patient := setup(t)

	booked := &model.Appointment{DoctorID: doctor.ID, PatientID: patient.ID, Date: "2025-05-20", Time: "08:00"}
	require.NoError(t, store.Appointments.Book(ctx, booked))

	cancelled := &model.Appointment{DoctorID: doctor.ID, PatientID: patient.ID, Date: "2025-05-21", Time: "04:00"}
	require.NoError(t, store.Appointments.Book(ctx, cancelled))
	cancelled.Status = model.AppointmentStatusCancelled
	require.NoError(t, store.Appointments.UpdateStatus(ctx, cancelled, model.AppointmentStatusBooked))

	doctorView, err := svc.DoctorSchedule(ctx, doctor.ID)
	require.NoError(t, err)
	patientView, err := svc.PatientAvailability(ctx, doctor.ID)
	require.NoError(t, err)

	for _, view := range []*model.DoctorSchedule{doctorView, patientView} {
		unavailable := 0
		for _, day := range view.Days {
			for _, s := range day.Slots {
				if !s.Available {
					unavailable++
					assert.Equal(t, "2025-05-20", day.Date)
					assert.Equal(t, "08:00", s.Start)
				}
			}
		}
		assert.Equal(t, 1, unavailable)
	}

	slot := findSlot(t, doctorView, "2025-05-20", "08:00")
	require.NotNil(t, slot.PatientID)
	assert.Equal(t, patient.ID, *slot.PatientID)
	assert.Equal(t, "Bob", *slot.PatientName)
	assert.Equal(t, booked.ID, *slot.AppointmentID)

	slot = findSlot(t, patientView, "2025-05-20", "08:00")
	assert.Nil(t, slot.PatientID)
	assert.Nil(t, slot.PatientName)
}

func TestOffTimeBookingDoesNotBlockSlot(t *testing.T) {
	ctx := context.Background()
	svc, store, doctor, patient := setup(t)

	require.NoError(t, store.Appointments.Book(ctx, &model.Appointment{
		DoctorID: doctor.ID, PatientID: patient.ID, Date: "2025-05-20", Time: "10:00",
	}))

	schedule, err := svc.DoctorSchedule(ctx, doctor.ID)
	require.NoError(t, err)
	assert.True(t, findSlot(t, schedule, "2025-05-20", "08:00").Available)
}

func TestUnknownDoctor(t *testing.T) {
	svc, _, _, patient := setup(t)

	_, err := svc.DoctorSchedule(context.Background(), 999)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = svc.PatientAvailability(context.Background(), patient.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTodayFollowsLocation(t *testing.T) {
	ctx := context.Background()
	_, store, doctor, _ := setup(t)

	// 20:00 UTC on Saturday is already Sunday in UTC+5:30
	loc := time.FixedZone("IST", 5*3600+1800)
	svc := NewService(store.Users, store.Appointments,
		WithClock(func() time.Time { return time.Date(2025, 5, 17, 20, 0, 0, 0, time.UTC) }),
		WithLocation(loc),
	)

	schedule, err := svc.DoctorSchedule(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-19", schedule.From)
	assert.Equal(t, "2025-05-24", schedule.To)
}

func findSlot(t *testing.T, schedule *model.DoctorSchedule, date, start string) model.TimeSlot {
	t.Helper()
	for _, day := range schedule.Days {
		if day.Date != date {
			continue
		}
		for _, s := range day.Slots {
			if s.Start == start {
				return s
			}
		}
	}
	t.Fatalf("slot %s %s not in schedule", date, start)
	return model.TimeSlot{}
}

func slotAt(t *testing.T, schedule *model.DoctorSchedule, date, start string) model.TimeSlot {
	t.Helper()
	for _, day := range schedule.Days {
		if day.Date != date {
			continue
		}
		for _, s := range day.Slots {
			if s.Start == start {
				return s
			}
		}
	}
	t.Fatalf("no %s slot on %s", start, date)
	return model.TimeSlot{}
}

func TestRescheduleMovesAvailability(t *testing.T) {
	ctx := context.Background()
	svc, store, doctor, patient := setup(t)
	bookings := appointment.NewService(store.Users, store.Appointments, nil, nil, nil)
	bookings.SetClock(func() time.Time { return reference })
	actor := model.Actor{ID: patient.ID, Role: model.RolePatient}

	apt, err := bookings.Book(ctx, actor, doctor.ID, patient.ID, "20/05/2025", "08:00")
	require.NoError(t, err)

	before, err := svc.PatientAvailability(ctx, doctor.ID)
	require.NoError(t, err)
	assert.False(t, slotAt(t, before, "2025-05-20", "08:00").Available)
	assert.True(t, slotAt(t, before, "2025-05-22", "04:00").Available)

	_, err = bookings.Reschedule(ctx, actor, apt.ID, "22/05/2025", "04:00")
	require.NoError(t, err)

	after, err := svc.PatientAvailability(ctx, doctor.ID)
	require.NoError(t, err)
	assert.True(t, slotAt(t, after, "2025-05-20", "08:00").Available)
	assert.False(t, slotAt(t, after, "2025-05-22", "04:00").Available)

	schedule, err := svc.DoctorSchedule(ctx, doctor.ID)
	require.NoError(t, err)
	moved := slotAt(t, schedule, "2025-05-22", "04:00")
	assert.False(t, moved.Available)
	require.NotNil(t, moved.PatientID)
	assert.Equal(t, patient.ID, *moved.PatientID)
	require.NotNil(t, moved.PatientName)
	assert.Equal(t, "Bob", *moved.PatientName)
	require.NotNil(t, moved.AppointmentID)
	assert.Equal(t, apt.ID, *moved.AppointmentID)

	old := slotAt(t, schedule, "2025-05-20", "08:00")
	assert.True(t, old.Available)
	assert.Nil(t, old.PatientID)
}
