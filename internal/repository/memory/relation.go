package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type relationRepository struct {
	db *DB
}

func (r *relationRepository) Add(ctx context.Context, doctorID, patientID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := relationKey{doctorID: doctorID, patientID: patientID}
	if _, ok := r.db.relations[key]; !ok {
		r.db.relations[key] = r.db.now()
	}
	return nil
}

func (r *relationRepository) Exists(ctx context.Context, doctorID, patientID int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.relations[relationKey{doctorID: doctorID, patientID: patientID}]
	return ok, nil
}

func (r *relationRepository) ListPatients(ctx context.Context, doctorID int64) ([]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var patients []*model.User
	for key := range r.db.relations {
		if key.doctorID != doctorID {
			continue
		}
		if u, ok := r.db.users[key.patientID]; ok {
			patients = append(patients, cloneUser(u))
		}
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].Name < patients[j].Name })
	return patients, nil
}

type blacklistRepository struct {
	db *DB
}

func (r *blacklistRepository) Add(ctx context.Context, entry *model.BlacklistEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if entry.Specialization == "" {
		entry.Specialization = model.DefaultSpecialization
	}
	entry.ID = r.db.nextID()
	entry.CreatedAt = r.db.now()
	c := *entry
	r.db.blacklist = append(r.db.blacklist, &c)
	return nil
}

func (r *blacklistRepository) List(ctx context.Context) ([]*model.BlacklistEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	entries := make([]*model.BlacklistEntry, 0, len(r.db.blacklist))
	for _, e := range r.db.blacklist {
		c := *e
		entries = append(entries, &c)
	}
	return entries, nil
}

func (r *blacklistRepository) IsBlacklisted(ctx context.Context, name, username, specialization string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, e := range r.db.blacklist {
		if e.Matches(name, username, specialization) {
			return true, nil
		}
	}
	return false, nil
}

type statsRepository struct {
	db *DB
}

func (r *statsRepository) DashboardCounts(ctx context.Context) (*model.DashboardCounts, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := &model.DashboardCounts{Appointments: int64(len(r.db.appointments))}
	for _, u := range r.db.users {
		switch u.Role {
		case model.RoleDoctor:
			counts.Doctors++
		case model.RolePatient:
			counts.Patients++
		}
	}
	return counts, nil
}

func (r *statsRepository) DoctorsBySpecialization(ctx context.Context) ([]*model.SpecializationCount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	bySpec := make(map[string]int64)
	for _, u := range r.db.users {
		if u.Role == model.RoleDoctor {
			bySpec[u.SpecializationOrDefault()]++
		}
	}

	counts := make([]*model.SpecializationCount, 0, len(bySpec))
	for spec, n := range bySpec {
		counts = append(counts, &model.SpecializationCount{Specialization: spec, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Specialization < counts[j].Specialization })
	return counts, nil
}

var (
	_ repository.RelationRepository  = (*relationRepository)(nil)
	_ repository.BlacklistRepository = (*blacklistRepository)(nil)
	_ repository.StatsRepository     = (*statsRepository)(nil)
)
