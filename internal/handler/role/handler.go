package role

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/service/role"
)

type Handler struct {
	service *role.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *role.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	roles := rg.Group("/roles")
	{
		roles.GET("/builtin", h.ListBuiltin)

		roles.POST("", h.auth.RequirePermission(permission.ResourceUsers, "manage"), h.Create)
		roles.GET("", h.auth.RequirePermission(permission.ResourceUsers, "read"), h.List)
		roles.GET("/:id", h.auth.RequirePermission(permission.ResourceUsers, "read"), h.Get)
		roles.PATCH("/:id", h.auth.RequirePermission(permission.ResourceUsers, "manage"), h.Update)
		roles.GET("/:id/effective", h.auth.RequirePermission(permission.ResourceUsers, "read"), h.Effective)

		roles.POST("/assignments", h.auth.RequirePermission(permission.ResourceUsers, "manage"), h.Assign)
		roles.DELETE("/assignments/:userID/:roleID", h.auth.RequirePermission(permission.ResourceUsers, "manage"), h.Revoke)
	}
}

// ListBuiltin returns the compiled role catalogue with levels and
// dashboard routes.
func (h *Handler) ListBuiltin(c *gin.Context) {
	type builtinRole struct {
		Name           string `json:"name"`
		Level          int    `json:"level"`
		DashboardRoute string `json:"dashboard_route"`
	}
	out := make([]builtinRole, 0)
	for _, r := range permission.Roles() {
		out = append(out, builtinRole{
			Name:           string(r),
			Level:          permission.RoleLevel(r),
			DashboardRoute: permission.DashboardRoute(r),
		})
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) Create(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input role.CreateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), principal, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) List(c *gin.Context) {
	var showroomID *uuid.UUID
	if raw := c.Query("showroom_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid showroom ID"))
			return
		}
		showroomID = &id
	}

	roles, err := h.service.List(c.Request.Context(), showroomID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(roles))
}

func (h *Handler) Update(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	var input role.UpdateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), principal, id, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

// Effective resolves a custom role's capabilities merged over its base.
func (h *Handler) Effective(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	capabilities, err := h.service.EffectiveCapabilities(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(capabilities))
}

func (h *Handler) Assign(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input role.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	assignment, err := h.service.Assign(c.Request.Context(), principal, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(assignment))
}

func (h *Handler) Revoke(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}
	roleID, err := uuid.Parse(c.Param("roleID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	if err := h.service.Revoke(c.Request.Context(), principal, userID, roleID); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
