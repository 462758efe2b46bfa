package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/service/user"
)

type Handler struct {
	service *user.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *user.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.GET("/me", h.Me)

		users.POST("", h.auth.RequirePermission(permission.ResourceUsers, "manage"), h.Create)
		users.GET("", h.auth.RequirePermission(permission.ResourceUsers, "read"), h.List)
		users.GET("/:id", h.auth.RequirePermission(permission.ResourceUsers, "read"), h.Get)
		users.PATCH("/:id", h.auth.RequirePermission(permission.ResourceUsers, "update"), h.Update)
	}
}

// Me returns the caller's own account.
func (h *Handler) Me(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), principal.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) Create(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input user.CreateInput
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
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceUsers, "read", recordContext(found)) {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// recordContext exposes a loaded account's attributes for record-level
// authorization. Accounts own themselves.
func recordContext(u *model.User) *permission.ResourceContext {
	ownerID := u.ID
	return &permission.ResourceContext{
		OwnerID:    &ownerID,
		ShowroomID: u.ShowroomID,
	}
}

func (h *Handler) List(c *gin.Context) {
	filter := &model.UserFilter{Search: c.Query("search")}

	if raw := c.Query("showroom_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid showroom ID"))
			return
		}
		filter.ShowroomID = &id
	}
	if raw := c.Query("role"); raw != "" {
		role, ok := permission.ParseRole(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown role"))
			return
		}
		filter.Role = &role
	}

	// A showroom-scoped grant only covers colleagues in the principal's
	// own showroom, whatever the query asked for.
	if decision, ok := middleware.DecisionFrom(c); ok && decision.Conditions != nil {
		principal, _ := middleware.PrincipalFrom(c)
		if decision.Conditions.ShowroomOnly {
			filter.ShowroomID = principal.ShowroomID
		}
	}

	users, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) Update(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	var input user.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceUsers, "update", recordContext(existing)) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), principal, id, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}
