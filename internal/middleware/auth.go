package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

const (
	ContextActor = "actor"
	ContextToken = "access_token"
)

// Authenticator resolves a bearer token to the calling actor.
type Authenticator interface {
	Authenticate(token string) (model.Actor, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate verifies the bearer token and stores the actor in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.New(errors.KindUnauthorized, "missing authorization header", nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.RespondWithError(c, errors.New(errors.KindUnauthorized, "invalid authorization format", nil))
			return
		}

		actor, err := m.auth.Authenticate(parts[1])
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextActor, actor)
		c.Set(ContextToken, parts[1])
		c.Next()
	}
}

// ActorFrom returns the actor stored by Authenticate.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
