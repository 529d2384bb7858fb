package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type appointmentRepository struct {
	db *DB
}

// Book checks the slot and inserts under one write lock, then records the
// doctor-patient relation.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.slotBooked(appointment.DoctorID, appointment.Date, appointment.Time, 0) {
		return repository.ErrSlotTaken
	}

	now := r.db.now()
	appointment.ID = r.db.nextID()
	appointment.Status = model.AppointmentStatusBooked
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	r.db.appointments[appointment.ID] = cloneAppointment(appointment)

	key := relationKey{doctorID: appointment.DoctorID, patientID: appointment.PatientID}
	if _, ok := r.db.relations[key]; !ok {
		r.db.relations[key] = now
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAppointment(a), nil
}

func (r *appointmentRepository) Reschedule(ctx context.Context, id int64, date, clock string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !a.IsBooked() {
		return repository.ErrStatusChanged
	}
	if r.slotBooked(a.DoctorID, date, clock, id) {
		return repository.ErrSlotTaken
	}

	a.Date = date
	a.Time = clock
	a.UpdatedAt = r.db.now()
	return nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.appointments[appointment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != from {
		return repository.ErrStatusChanged
	}
	if appointment.Status == model.AppointmentStatusBooked && !a.IsBooked() &&
		r.slotBooked(a.DoctorID, a.Date, a.Time, a.ID) {
		return repository.ErrSlotTaken
	}

	a.Status = appointment.Status
	a.Diagnosis = appointment.Diagnosis
	a.Prescription = appointment.Prescription
	a.UpdatedAt = r.db.now()
	appointment.UpdatedAt = a.UpdatedAt
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	var result []*model.AppointmentDetail
	for _, a := range r.db.appointments {
		if filters.DoctorID != 0 && a.DoctorID != filters.DoctorID {
			continue
		}
		if filters.PatientID != 0 && a.PatientID != filters.PatientID {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		detail := &model.AppointmentDetail{Appointment: *a}
		if d, ok := r.db.users[a.DoctorID]; ok {
			detail.DoctorName = d.Name
		}
		if p, ok := r.db.users[a.PatientID]; ok {
			detail.PatientName = p.Name
		}
		result = append(result, detail)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		if result[i].Time != result[j].Time {
			return result[i].Time < result[j].Time
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *appointmentRepository) IsSlotBooked(ctx context.Context, doctorID int64, date, clock string, excludeID *int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var exclude int64
	if excludeID != nil {
		exclude = *excludeID
	}
	return r.slotBooked(doctorID, date, clock, exclude), nil
}

func (r *appointmentRepository) ListBookedSlots(ctx context.Context, doctorID int64, from, to string) ([]*model.BookedSlot, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var slots []*model.BookedSlot
	for _, a := range r.db.appointments {
		if a.DoctorID != doctorID || !a.IsBooked() || a.Date < from || a.Date > to {
			continue
		}
		slot := &model.BookedSlot{
			AppointmentID: a.ID,
			Date:          a.Date,
			Time:          a.Time,
			PatientID:     a.PatientID,
		}
		if p, ok := r.db.users[a.PatientID]; ok {
			slot.PatientName = p.Name
		}
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Time < slots[j].Time
	})
	return slots, nil
}

func (r *appointmentRepository) HasAppointmentWith(ctx context.Context, doctorID, patientID int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, a := range r.db.appointments {
		if a.DoctorID == doctorID && a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

// slotBooked must be called with mu held.
func (r *appointmentRepository) slotBooked(doctorID int64, date, clock string, excludeID int64) bool {
	for _, a := range r.db.appointments {
		if a.ID == excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date == date && a.Time == clock && a.IsBooked() {
			return true
		}
	}
	return false
}
