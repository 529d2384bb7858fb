package patient

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	authsvc "github.com/jwalitptl/hms-api/internal/service/auth"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/security"
)

type Service struct {
	repo      repository.UserRepository
	relations repository.RelationRepository
	hasher    security.PasswordHasher
}

func NewService(repo repository.UserRepository, relations repository.RelationRepository, hasher security.PasswordHasher) *Service {
	return &Service{
		repo:      repo,
		relations: relations,
		hasher:    hasher,
	}
}

func (s *Service) ListPatients(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	if filter == nil {
		filter = &model.UserFilter{}
	}
	filter.Role = model.RolePatient

	patients, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list patients: %w", err))
	}
	if patients == nil {
		patients = []*model.User{}
	}
	return patients, nil
}

// DeletePatient removes the patient with their appointments and history.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("patient", err)
		}
		return errors.Internal(fmt.Errorf("failed to load patient: %w", err))
	}
	if u.Role != model.RolePatient {
		return errors.NotFound("patient", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("patient", err)
		}
		return errors.Internal(fmt.Errorf("failed to delete patient: %w", err))
	}
	return nil
}

// CreatePatient registers a patient on behalf of staff. When a doctor does
// it, the doctor is related to the new patient straight away.
func (s *Service) CreatePatient(ctx context.Context, actor model.Actor, req *model.CreatePatientRequest) (*model.User, error) {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return nil, errors.Forbidden("only staff can register patients")
	}

	patient := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
		Role:     model.RolePatient,
	}
	if req.Email != "" {
		email := req.Email
		patient.Email = &email
	}
	if err := authsvc.CreateUser(ctx, s.repo, s.hasher, patient, req.Password); err != nil {
		return nil, err
	}

	if actor.IsDoctor() {
		if err := s.relations.Add(ctx, actor.ID, patient.ID); err != nil {
			return nil, errors.Internal(fmt.Errorf("failed to relate patient: %w", err))
		}
	}
	return patient, nil
}

// DoctorPatients lists the patients related to a doctor.
func (s *Service) DoctorPatients(ctx context.Context, doctorID int64) ([]*model.User, error) {
	patients, err := s.relations.ListPatients(ctx, doctorID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list patients: %w", err))
	}
	if patients == nil {
		patients = []*model.User{}
	}
	return patients, nil
}
