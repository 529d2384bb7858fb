package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/pkg/auth"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/security"
)

func newService() *Service {
	store := memory.NewStore()
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test", Issuer: "hms", Expiry: time.Hour})
	return NewService(store.Users, jwtSvc, security.NewBcryptHasher(bcrypt.MinCost), nil)
}

func TestRegisterLoginLogout(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Name: "Carol", Username: "carol", Password: "carolpass", Email: "carol@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, user.Role)
	assert.NotEmpty(t, user.PasswordHash)

	_, err = svc.Login(ctx, "carol", "wrongpass")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody", "carolpass")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	tok, err := svc.Login(ctx, "carol", "carolpass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, tok.UserID)

	actor, err := svc.Authenticate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.Actor{ID: user.ID, Role: model.RolePatient, Username: "carol"}, actor)

	require.NoError(t, svc.Logout(tok.AccessToken))
	_, err = svc.Authenticate(tok.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{Name: "A", Username: "dup", Password: "password"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{Name: "B", Username: "dup", Password: "password"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUsername)
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newService()

	_, err := svc.Register(context.Background(), &model.RegisterRequest{Name: "A", Username: "abc", Password: "123"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
