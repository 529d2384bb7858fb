package middleware

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

// rbacModel matches role against the route template (c.FullPath) and method.
// keyMatch2 understands gin's :param segments.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy grants a role access to a route template for a method ("*" for any).
type Policy struct {
	Role   model.Role
	Path   string
	Method string
}

// DefaultPolicies is the role-to-route table for /api/v1. Routes that any
// signed-in user may call are listed once per role. Finer ownership checks
// live in the services.
func DefaultPolicies(prefix string) []Policy {
	all := []model.Role{model.RoleAdmin, model.RoleDoctor, model.RolePatient}
	var policies []Policy
	add := func(roles []model.Role, method, path string) {
		for _, r := range roles {
			policies = append(policies, Policy{Role: r, Path: prefix + path, Method: method})
		}
	}

	add(all, "POST", "/auth/logout")
	add(all, "GET", "/appointments")
	add(all, "GET", "/appointments/:id")
	add(all, "GET", "/history/:id")
	add(all, "GET", "/patients/:id/history")

	add([]model.Role{model.RolePatient}, "GET", "/doctors/:id/availability")
	add(all, "POST", "/appointments")
	add([]model.Role{model.RolePatient, model.RoleAdmin}, "POST", "/appointments/:id/cancel")
	add([]model.Role{model.RolePatient, model.RoleAdmin}, "POST", "/appointments/:id/reschedule")

	add([]model.Role{model.RoleDoctor}, "GET", "/schedule")
	add([]model.Role{model.RoleDoctor}, "POST", "/appointments/:id/complete")
	add([]model.Role{model.RoleDoctor}, "*", "/doctor/patients")
	add([]model.Role{model.RoleDoctor, model.RoleAdmin}, "POST", "/history")
	add([]model.Role{model.RoleDoctor, model.RoleAdmin}, "PUT", "/history/:id")

	add([]model.Role{model.RoleAdmin}, "*", "/admin/*")
	return policies
}

type RBAC struct {
	enforcer *casbin.Enforcer
}

func NewRBAC(policies []Policy) (*RBAC, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	for _, p := range policies {
		if _, err := enforcer.AddPolicy(string(p.Role), p.Path, p.Method); err != nil {
			return nil, fmt.Errorf("failed to add policy %s %s %s: %w", p.Role, p.Method, p.Path, err)
		}
	}
	return &RBAC{enforcer: enforcer}, nil
}

// Allowed reports whether role may call method on the route template path.
func (r *RBAC) Allowed(role model.Role, path, method string) (bool, error) {
	return r.enforcer.Enforce(string(role), path, method)
}

// Authorize must run after Authenticate.
func (r *RBAC) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}

		allowed, err := r.Allowed(actor.Role, c.FullPath(), c.Request.Method)
		if err != nil {
			httputil.RespondWithError(c, errors.Internal(fmt.Errorf("rbac: %w", err)))
			return
		}
		if !allowed {
			httputil.RespondWithError(c, errors.Forbidden(fmt.Sprintf("role %s cannot access this resource", actor.Role)))
			return
		}
		c.Next()
	}
}
