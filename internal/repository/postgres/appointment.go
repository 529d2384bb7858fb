package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

const appointmentColumns = `id, doctor_id, patient_id, date, time, status, diagnosis, prescription, created_at, updated_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// Book inserts the appointment and the doctor-patient relation in one
// transaction. The partial unique index on Booked slots turns a lost race
// into ErrSlotTaken.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) error {
	insertAppointment := `
		INSERT INTO appointments (doctor_id, patient_id, date, time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	insertRelation := `
		INSERT INTO doctor_patient_relations (doctor_id, patient_id)
		VALUES ($1, $2)
		ON CONFLICT (doctor_id, patient_id) DO NOTHING
	`
	appointment.Status = model.AppointmentStatusBooked

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, insertAppointment,
			appointment.DoctorID,
			appointment.PatientID,
			appointment.Date,
			appointment.Time,
			appointment.Status,
		).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertRelation, appointment.DoctorID, appointment.PatientID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to book appointment: %w", translate(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", translate(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) Reschedule(ctx context.Context, id int64, date, clock string) error {
	query := `
		UPDATE appointments
		SET date = $1, time = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, date, clock, id, model.AppointmentStatusBooked)
	if err != nil {
		return fmt.Errorf("failed to reschedule appointment: %w", translate(err))
	}
	if err := requireRows(result); err != nil {
		return r.missingOrChanged(ctx, id, err)
	}
	return nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, diagnosis = $2, prescription = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		appointment.Status,
		appointment.Diagnosis,
		appointment.Prescription,
		appointment.ID,
		from,
	).Scan(&appointment.UpdatedAt)
	if err != nil {
		err = translate(err)
		if errors.Is(err, repository.ErrNotFound) {
			return r.missingOrChanged(ctx, appointment.ID, err)
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

// missingOrChanged tells a deleted row from one whose status moved on
// after a guarded UPDATE matched nothing.
func (r *appointmentRepository) missingOrChanged(ctx context.Context, id int64, notFound error) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check appointment: %w", err)
	}
	if exists {
		return repository.ErrStatusChanged
	}
	return notFound
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	query := `
		SELECT a.id, a.doctor_id, a.patient_id, a.date, a.time, a.status,
			   a.diagnosis, a.prescription, a.created_at, a.updated_at,
			   d.name AS doctor_name, p.name AS patient_name
		FROM appointments a
		JOIN users d ON d.id = a.doctor_id
		JOIN users p ON p.id = a.patient_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.DoctorID != 0 {
		query += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	if filters.PatientID != 0 {
		query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY a.date, a.time, a.id"

	var appointments []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) IsSlotBooked(ctx context.Context, doctorID int64, date, clock string, excludeID *int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND date = $2
			AND time = $3
			AND status = 'Booked'
	`
	args := []interface{}{doctorID, date, clock}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	query += ")"

	var booked bool
	if err := r.db.GetContext(ctx, &booked, query, args...); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return booked, nil
}

func (r *appointmentRepository) ListBookedSlots(ctx context.Context, doctorID int64, from, to string) ([]*model.BookedSlot, error) {
	query := `
		SELECT a.id, a.date, a.time, a.patient_id, p.name AS patient_name
		FROM appointments a
		JOIN users p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		AND a.status = 'Booked'
		AND a.date BETWEEN $2 AND $3
		ORDER BY a.date, a.time
	`
	var slots []*model.BookedSlot
	if err := r.db.SelectContext(ctx, &slots, query, doctorID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	return slots, nil
}

func (r *appointmentRepository) HasAppointmentWith(ctx context.Context, doctorID, patientID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM appointments WHERE doctor_id = $1 AND patient_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, doctorID, patientID); err != nil {
		return false, fmt.Errorf("failed to check appointments: %w", err)
	}
	return exists, nil
}
