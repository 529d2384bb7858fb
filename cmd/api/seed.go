package main

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	authsvc "github.com/jwalitptl/hms-api/internal/service/auth"
	"github.com/jwalitptl/hms-api/pkg/security"
)

type seedUser struct {
	user     model.User
	password string
}

func defaultSeed() []seedUser {
	specialization := "Cardiology"
	experience := "5 years"
	return []seedUser{
		{
			user:     model.User{Name: "Administrator", Username: "admin", Role: model.RoleAdmin},
			password: "adminpass",
		},
		{
			user: model.User{
				Name:           "Dr. Alice",
				Username:       "dr1",
				Role:           model.RoleDoctor,
				Specialization: &specialization,
				Experience:     &experience,
			},
			password: "dr1pass",
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin and sample doctor if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return seed(cmd.Context(), postgres.NewStore(db), security.NewBcryptHasher(bcrypt.DefaultCost))
		},
	}
}

// seed skips users whose username already exists.
func seed(ctx context.Context, store *repository.Store, hasher security.PasswordHasher) error {
	for _, s := range defaultSeed() {
		_, err := store.Users.GetByUsername(ctx, s.user.Username)
		if err == nil {
			log.Info().Str("username", s.user.Username).Msg("Seed user exists, skipping")
			continue
		}
		if !stderrors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to look up %s: %w", s.user.Username, err)
		}

		u := s.user
		if err := authsvc.CreateUser(ctx, store.Users, hasher, &u, s.password); err != nil {
			return fmt.Errorf("failed to seed %s: %w", u.Username, err)
		}
		log.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("Seeded user")
	}
	return nil
}
