package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type userRepository struct {
	db *DB
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.usernameTaken(user.Username, 0) {
		return repository.ErrDuplicateUsername
	}

	user.ID = r.db.nextID()
	user.CreatedAt = r.db.now()
	r.db.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.usernameTaken(user.Username, user.ID) {
		return repository.ErrDuplicateUsername
	}

	existing.Name = user.Name
	existing.Username = user.Username
	existing.Specialization = user.Specialization
	existing.Experience = user.Experience
	existing.Email = user.Email
	return nil
}

// Delete removes the user together with their appointments, history and
// relations, matching the cascading foreign keys of the SQL schema.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.users, id)

	for apptID, a := range r.db.appointments {
		if a.DoctorID == id || a.PatientID == id {
			delete(r.db.appointments, apptID)
		}
	}
	for hID, h := range r.db.history {
		if _, ok := r.db.appointments[h.AppointmentID]; !ok {
			delete(r.db.history, hID)
		}
	}
	for key := range r.db.relations {
		if key.doctorID == id || key.patientID == id {
			delete(r.db.relations, key)
		}
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if filter == nil {
		filter = &model.UserFilter{}
	}
	term := strings.ToLower(filter.SearchTerm)

	var users []*model.User
	for _, u := range r.db.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Username), term) {
			continue
		}
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	offset, limit := filter.Offset(), filter.Limit()
	if offset >= len(users) {
		return []*model.User{}, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end], nil
}

func (r *userRepository) ListDoctors(ctx context.Context) ([]*model.DoctorSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var doctors []*model.DoctorSummary
	for _, u := range r.db.users {
		if u.Role != model.RoleDoctor {
			continue
		}
		doctors = append(doctors, &model.DoctorSummary{
			ID:             u.ID,
			Name:           u.Name,
			Specialization: u.SpecializationOrDefault(),
		})
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

func (r *userRepository) usernameTaken(username string, exceptID int64) bool {
	for _, u := range r.db.users {
		if u.Username == username && u.ID != exceptID {
			return true
		}
	}
	return false
}
