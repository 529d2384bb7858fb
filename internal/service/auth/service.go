package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/security"
)

var ErrInvalidCredentials = errors.New(errors.KindUnauthorized, "invalid credentials", nil)

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	// revoked holds logged-out token ids until the token would expire anyway.
	revoked *cache.Cache
	log     *logger.Logger
	now     func() time.Time
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		revoked:  cache.New(cache.NoExpiration, 10*time.Minute),
		log:      log.Component("auth"),
		now:      time.Now,
	}
}

// Register creates a patient account. Staff accounts are created by admins.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
		Role:     model.RolePatient,
	}
	if req.Email != "" {
		email := req.Email
		user.Email = &email
	}
	if err := CreateUser(ctx, s.userRepo, s.hasher, user, req.Password); err != nil {
		return nil, err
	}

	s.log.Info("Patient registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.log.Info("Failed login attempt", "username", username)
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		Role:        user.Role,
		UserID:      user.ID,
	}, nil
}

// Authenticate validates a bearer token and returns the caller.
func (s *Service) Authenticate(token string) (model.Actor, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return model.Actor{}, errors.Unauthorized(err)
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return model.Actor{}, errors.Unauthorized(fmt.Errorf("token %s has been revoked", claims.ID))
	}
	actor, err := claims.Actor()
	if err != nil {
		return model.Actor{}, errors.Unauthorized(err)
	}
	return actor, nil
}

// Logout revokes the token until its natural expiry.
func (s *Service) Logout(token string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return errors.Unauthorized(err)
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.revoked.Set(claims.ID, struct{}{}, ttl)
	return nil
}

// CreateUser hashes the password and stores the user, mapping a taken
// username to DuplicateUsername.
func CreateUser(ctx context.Context, repo repository.UserRepository, hasher security.PasswordHasher, user *model.User, password string) error {
	if user.Name == "" || user.Username == "" {
		return errors.Validation("name and username are required")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		if stderrors.Is(err, security.ErrPasswordTooShort) {
			return errors.Validation(fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
		}
		return errors.Internal(err)
	}
	user.PasswordHash = hash

	if err := repo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateUsername) {
			return errors.DuplicateUsername(user.Username)
		}
		return errors.Internal(fmt.Errorf("failed to create user: %w", err))
	}
	return nil
}
