package postgres

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, repository.ErrNotFound},
		{"booked slot", &pq.Error{Code: uniqueViolation, Constraint: bookedSlotIndex}, repository.ErrSlotTaken},
		{"username", &pq.Error{Code: uniqueViolation, Constraint: usernameIndex}, repository.ErrDuplicateUsername},
		{"history appointment", &pq.Error{Code: foreignKeyViolation, Constraint: historyAppointFK}, repository.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.in), tt.want)
		})
	}

	other := &pq.Error{Code: uniqueViolation, Constraint: "something_else"}
	assert.Equal(t, other, translate(other))
	assert.NoError(t, translate(nil))
}

func TestAppointmentBook(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(2), int64(3), "2025-05-19", "08:00", model.AppointmentStatusBooked).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectExec("INSERT INTO doctor_patient_relations").
		WithArgs(int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	apt := &model.Appointment{DoctorID: 2, PatientID: 3, Date: "2025-05-19", Time: "08:00"}
	require.NoError(t, repo.Book(context.Background(), apt))
	assert.Equal(t, int64(11), apt.ID)
	assert.Equal(t, model.AppointmentStatusBooked, apt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentBookSlotTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: bookedSlotIndex})
	mock.ExpectRollback()

	err := repo.Book(context.Background(), &model.Appointment{DoctorID: 2, PatientID: 3, Date: "2025-05-19", Time: "08:00"})
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAppointmentRescheduleMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))

	mock.ExpectExec(`WHERE id = \$3 AND status = \$4`).
		WithArgs("2025-05-20", "04:00", int64(7), "Booked").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Reschedule(context.Background(), 7, "2025-05-20", "04:00")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRescheduleNotBooked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))

	mock.ExpectExec("UPDATE appointments").
		WithArgs("2025-05-20", "04:00", int64(7), "Booked").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Reschedule(context.Background(), 7, "2025-05-20", "04:00")
	assert.ErrorIs(t, err, repository.ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentUpdateStatusGuardsCurrentStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))
	diagnosis, prescription := "flu", "rest"
	apt := &model.Appointment{ID: 7, Status: model.AppointmentStatusCompleted, Diagnosis: &diagnosis, Prescription: &prescription}

	mock.ExpectQuery(`WHERE id = \$4 AND status = \$5`).
		WithArgs("Completed", "flu", "rest", int64(7), "Booked").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.UpdateStatus(context.Background(), apt, model.AppointmentStatusBooked)
	assert.ErrorIs(t, err, repository.ErrStatusChanged)

	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE id = \$4 AND status = \$5`).
		WithArgs("Completed", "flu", "rest", int64(7), "Booked").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	require.NoError(t, repo.UpdateStatus(context.Background(), apt, model.AppointmentStatusBooked))
	assert.Equal(t, now, apt.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSlotBookedExcludesSelf(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))
	self := int64(5)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(2), "2025-05-19", "08:00", self).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	booked, err := repo.IsSlotBooked(context.Background(), 2, "2025-05-19", "08:00", &self)
	require.NoError(t, err)
	assert.False(t, booked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(NewBaseRepository(db))
	now := time.Now()

	cols := []string{
		"id", "doctor_id", "patient_id", "date", "time", "status",
		"diagnosis", "prescription", "created_at", "updated_at",
		"doctor_name", "patient_name",
	}
	mock.ExpectQuery(`AND a.doctor_id = \$1 AND a.status = \$2 ORDER BY a.date, a.time, a.id`).
		WithArgs(int64(2), model.AppointmentStatusBooked).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(2), int64(3), "2025-05-19", "08:00", "Booked", nil, nil, now, now, "Dr. Alice", "Bob"))

	list, err := repo.List(context.Background(), &model.AppointmentFilters{DoctorID: 2, Status: model.AppointmentStatusBooked})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Dr. Alice", list[0].DoctorName)
	assert.Equal(t, "Bob", list[0].PatientName)
	assert.Nil(t, list[0].Diagnosis)
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(NewBaseRepository(db))

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: usernameIndex})

	err := repo.Create(context.Background(), &model.User{Name: "A", Username: "dup", PasswordHash: "x", Role: model.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
}

func TestUserListPaginates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(NewBaseRepository(db))

	mock.ExpectQuery(`AND role = \$1 AND \(name ILIKE \$2 OR username ILIKE \$2\) ORDER BY id LIMIT \$3 OFFSET \$4`).
		WithArgs(model.RoleDoctor, "%ali%", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "password_hash", "role"}).
			AddRow(int64(2), "Dr. Alice", "dr1", "hash", "doctor"))

	users, err := repo.List(context.Background(), &model.UserFilter{
		Pagination: model.Pagination{Page: 2, PageSize: 10},
		Role:       model.RoleDoctor,
		SearchTerm: "ali",
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "dr1", users[0].Username)
}

func TestBlacklistDefaultsSpecialization(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlacklistRepository(NewBaseRepository(db))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Dr. Evil", "evil", "General").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	blocked, err := repo.IsBlacklisted(context.Background(), "Dr. Evil", "evil", "")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestStatsDoctorsBySpecialization(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStatsRepository(NewBaseRepository(db))

	mock.ExpectQuery("GROUP BY 1").
		WillReturnRows(sqlmock.NewRows([]string{"specialization", "count"}).
			AddRow("Cardiology", int64(2)).
			AddRow("General", int64(1)))

	counts, err := repo.DoctorsBySpecialization(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Cardiology", counts[0].Specialization)
	assert.Equal(t, int64(2), counts[0].Count)
}

func TestMigratorUpSkipsApplied(t *testing.T) {
	db, mock := newMock(t)
	m := &Migrator{db: db, files: fstest.MapFS{
		"migrations/002_history.sql": {Data: []byte("CREATE TABLE b (id INT);")},
		"migrations/001_init.sql":    {Data: []byte("CREATE TABLE a (id INT);")},
		"migrations/README.md":       {Data: []byte("notes")},
	}}

	loaded, err := m.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 1, loaded[0].Version)
	assert.Equal(t, 2, loaded[1].Version)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, name, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "name", "applied_at"}).
			AddRow(1, "001_init.sql", time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(2, "002_history.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := m.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsLoad(t *testing.T) {
	m := NewMigrator(nil)
	migrations, err := m.Load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "appointments_booked_slot_key")
}
