package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	permissionsvc "github.com/renovahq/crm-api/internal/service/permission"
	"github.com/renovahq/crm-api/pkg/auth"
)

const (
	ContextPrincipal = "principal"
	ContextDecision  = "permission_decision"
)

type AuthMiddleware struct {
	jwt         auth.JWTService
	permissions *permissionsvc.Service
}

func NewAuthMiddleware(jwt auth.JWTService, permissions *permissionsvc.Service) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:         jwt,
		permissions: permissions,
	}
}

// Authenticate verifies the bearer token and attaches the principal to
// the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		role, ok := permission.ParseRole(claims.Role)
		if !ok {
			// Token minted for a role that no longer exists: deny.
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("unknown role"))
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, model.Principal{
			UserID:     claims.UserID,
			Email:      claims.Email,
			Role:       role,
			ShowroomID: claims.ShowroomID,
		})
		c.Next()
	}
}

// RequirePermission gates a route on a resource/action capability.
// No target record exists at this point, so conditions are evaluated
// against the principal itself: the gate answers "could this role ever
// do this", and the winning grant's conditions are stashed on the
// request. Record routes must call AuthorizeRecord with the loaded
// record's real ownership before acting on it; list handlers narrow
// their filters from DecisionFrom.
func (m *AuthMiddleware) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
			c.Abort()
			return
		}

		selfID := principal.UserID
		resCtx := &permission.ResourceContext{
			OwnerID:        &selfID,
			ShowroomID:     principal.ShowroomID,
			AssignedUserID: &selfID,
		}

		decision, err := m.permissions.Check(c.Request.Context(), principal, resource, action, resCtx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to check permission"))
			c.Abort()
			return
		}
		if !decision.Allowed {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied: "+string(decision.Reason)))
			c.Abort()
			return
		}

		c.Set(ContextDecision, decision)
		c.Next()
	}
}

// AuthorizeRecord re-runs the permission check against a loaded
// record's actual ownership attributes. It writes the error response
// and returns false on denial, so handlers can bail with a bare
// return.
func (m *AuthMiddleware) AuthorizeRecord(c *gin.Context, resource, action string, resCtx *permission.ResourceContext) bool {
	principal, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return false
	}

	decision, err := m.permissions.Check(c.Request.Context(), principal, resource, action, resCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to check permission"))
		return false
	}
	if !decision.Allowed {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied: "+string(decision.Reason)))
		return false
	}
	return true
}

// PrincipalFrom retrieves the authenticated principal set by
// Authenticate.
func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := v.(model.Principal)
	return principal, ok
}

// DecisionFrom retrieves the gate decision set by RequirePermission.
func DecisionFrom(c *gin.Context) (permission.Decision, bool) {
	v, ok := c.Get(ContextDecision)
	if !ok {
		return permission.Decision{}, false
	}
	decision, ok := v.(permission.Decision)
	return decision, ok
}
