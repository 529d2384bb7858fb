package user

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	authsvc "github.com/jwalitptl/hms-api/internal/service/auth"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/security"
)

const directoryKey = "doctors"

// Service manages doctor accounts, the doctor blacklist and the public
// doctor directory.
type Service struct {
	repo      repository.UserRepository
	blacklist repository.BlacklistRepository
	hasher    security.PasswordHasher
	directory *cache.Cache
	log       *logger.Logger
}

type CacheConfig struct {
	DirectoryTTL    time.Duration
	CleanupInterval time.Duration
}

func NewService(repo repository.UserRepository, blacklist repository.BlacklistRepository, hasher security.PasswordHasher, cacheCfg CacheConfig, log *logger.Logger) *Service {
	if cacheCfg.DirectoryTTL <= 0 {
		cacheCfg.DirectoryTTL = time.Minute
	}
	if cacheCfg.CleanupInterval <= 0 {
		cacheCfg.CleanupInterval = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		blacklist: blacklist,
		hasher:    hasher,
		directory: cache.New(cacheCfg.DirectoryTTL, cacheCfg.CleanupInterval),
		log:       log.Component("user"),
	}
}

// DoctorDirectory lists every doctor's id, name and specialization.
func (s *Service) DoctorDirectory(ctx context.Context) ([]*model.DoctorSummary, error) {
	if cached, ok := s.directory.Get(directoryKey); ok {
		return cached.([]*model.DoctorSummary), nil
	}

	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list doctors: %w", err))
	}
	if doctors == nil {
		doctors = []*model.DoctorSummary{}
	}
	s.directory.SetDefault(directoryKey, doctors)
	return doctors, nil
}

func (s *Service) ListDoctors(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	if filter == nil {
		filter = &model.UserFilter{}
	}
	filter.Role = model.RoleDoctor

	doctors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list doctors: %w", err))
	}
	if doctors == nil {
		doctors = []*model.User{}
	}
	return doctors, nil
}

// CreateDoctor refuses identities on the blacklist and taken usernames.
func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	username := strings.TrimSpace(req.Username)
	specialization := strings.TrimSpace(req.Specialization)
	if specialization == "" {
		specialization = model.DefaultSpecialization
	}

	blocked, err := s.blacklist.IsBlacklisted(ctx, name, username, specialization)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to check blacklist: %w", err))
	}
	if blocked {
		return nil, errors.Forbidden("this doctor is blacklisted and cannot be added")
	}

	doctor := &model.User{
		Name:           name,
		Username:       username,
		Role:           model.RoleDoctor,
		Specialization: &specialization,
	}
	if exp := strings.TrimSpace(req.Experience); exp != "" {
		doctor.Experience = &exp
	}
	if req.Email != "" {
		email := req.Email
		doctor.Email = &email
	}

	if err := authsvc.CreateUser(ctx, s.repo, s.hasher, doctor, req.Password); err != nil {
		return nil, err
	}

	s.directory.Delete(directoryKey)
	s.log.Info("Doctor created", "user_id", doctor.ID, "username", doctor.Username)
	return doctor, nil
}

// UpdateDoctor replaces name, username, specialization and experience. An
// empty specialization is stored as NULL and shown as General.
func (s *Service) UpdateDoctor(ctx context.Context, id int64, req *model.UpdateDoctorRequest) (*model.User, error) {
	doctor, err := s.getDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor.Name = strings.TrimSpace(req.Name)
	doctor.Username = strings.TrimSpace(req.Username)
	doctor.Specialization = nonEmpty(req.Specialization)
	doctor.Experience = req.Experience
	if doctor.Name == "" || doctor.Username == "" {
		return nil, errors.Validation("name and username are required")
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrDuplicateUsername):
			return nil, errors.DuplicateUsername(doctor.Username)
		case stderrors.Is(err, repository.ErrNotFound):
			return nil, errors.NotFound("doctor", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to update doctor: %w", err))
	}

	s.directory.Delete(directoryKey)
	return doctor, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id int64) error {
	if _, err := s.getDoctor(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("doctor", err)
		}
		return errors.Internal(fmt.Errorf("failed to delete doctor: %w", err))
	}

	s.directory.Delete(directoryKey)
	s.log.Info("Doctor deleted", "user_id", id)
	return nil
}

func (s *Service) ListBlacklist(ctx context.Context) ([]*model.BlacklistEntry, error) {
	entries, err := s.blacklist.List(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list blacklist: %w", err))
	}
	return entries, nil
}

// AddToBlacklist stores an identity once; a repeat is a validation error.
func (s *Service) AddToBlacklist(ctx context.Context, entry *model.BlacklistEntry) (*model.BlacklistEntry, error) {
	entry.Name = strings.TrimSpace(entry.Name)
	entry.Username = strings.TrimSpace(entry.Username)
	entry.Specialization = strings.TrimSpace(entry.Specialization)
	if entry.Name == "" || entry.Username == "" {
		return nil, errors.Validation("missing fields")
	}
	if entry.Specialization == "" {
		entry.Specialization = model.DefaultSpecialization
	}

	exists, err := s.blacklist.IsBlacklisted(ctx, entry.Name, entry.Username, entry.Specialization)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to check blacklist: %w", err))
	}
	if exists {
		return nil, errors.Validation("already blacklisted")
	}

	if err := s.blacklist.Add(ctx, entry); err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to blacklist doctor: %w", err))
	}
	return entry, nil
}

func (s *Service) getDoctor(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("doctor", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load doctor: %w", err))
	}
	if u.Role != model.RoleDoctor {
		return nil, errors.NotFound("doctor", nil)
	}
	return u, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
