package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/security"
)

func newService() (*Service, *repository.Store) {
	store := memory.NewStore()
	return NewService(store.Users, store.Blacklist, security.NewBcryptHasher(bcrypt.MinCost), CacheConfig{}, nil), store
}

func TestCreateDoctor(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	doc, err := svc.CreateDoctor(ctx, &model.CreateDoctorRequest{
		Name: "Dr. Alice", Username: "dr1", Password: "dr1pass", Experience: "5 years",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, doc.Role)
	assert.Equal(t, "General", *doc.Specialization)
	assert.Equal(t, "5 years", *doc.Experience)

	_, err = svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "Other", Username: "dr1", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUsername)
}

func TestBlacklistBlocksDoctorCreation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.AddToBlacklist(ctx, &model.BlacklistEntry{Name: "Dr. Evil", Username: "evil"})
	require.NoError(t, err)

	_, err = svc.AddToBlacklist(ctx, &model.BlacklistEntry{Name: "Dr. Evil", Username: "evil", Specialization: "General"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.AddToBlacklist(ctx, &model.BlacklistEntry{Name: "", Username: "evil"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "Dr. Evil", Username: "evil", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// a different specialization is a different identity
	_, err = svc.CreateDoctor(ctx, &model.CreateDoctorRequest{
		Name: "Dr. Evil", Username: "evil", Password: "secret1", Specialization: "Surgery",
	})
	assert.NoError(t, err)

	list, err := svc.ListBlacklist(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDirectoryCacheIsInvalidated(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	dir, err := svc.DoctorDirectory(ctx)
	require.NoError(t, err)
	assert.Empty(t, dir)

	doc, err := svc.CreateDoctor(ctx, &model.CreateDoctorRequest{
		Name: "Dr. Alice", Username: "dr1", Password: "dr1pass", Specialization: "Cardiology",
	})
	require.NoError(t, err)

	dir, err = svc.DoctorDirectory(ctx)
	require.NoError(t, err)
	require.Len(t, dir, 1)
	assert.Equal(t, "Cardiology", dir[0].Specialization)

	blank := "  "
	_, err = svc.UpdateDoctor(ctx, doc.ID, &model.UpdateDoctorRequest{Name: "Dr. A", Username: "dr1", Specialization: &blank})
	require.NoError(t, err)

	dir, err = svc.DoctorDirectory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dr. A", dir[0].Name)
	assert.Equal(t, "General", dir[0].Specialization)

	require.NoError(t, svc.DeleteDoctor(ctx, doc.ID))
	dir, err = svc.DoctorDirectory(ctx)
	require.NoError(t, err)
	assert.Empty(t, dir)
}

func TestUpdateDoctorErrors(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	a, err := svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "A", Username: "a_doc", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "B", Username: "b_doc", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.UpdateDoctor(ctx, a.ID, &model.UpdateDoctorRequest{Name: "A", Username: "b_doc"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUsername)

	_, err = svc.UpdateDoctor(ctx, 999, &model.UpdateDoctorRequest{Name: "A", Username: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	patient := &model.User{Name: "P", Username: "p", Role: model.RolePatient}
	require.NoError(t, store.Users.Create(ctx, patient))
	assert.ErrorIs(t, svc.DeleteDoctor(ctx, patient.ID), apperrors.ErrNotFound)
}
