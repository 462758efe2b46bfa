package client

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/service/client"
)

type Handler struct {
	service *client.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *client.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients")
	{
		clients.POST("", h.auth.RequirePermission(permission.ResourceClients, "create"), h.Create)
		clients.GET("", h.auth.RequirePermission(permission.ResourceClients, "read"), h.List)
		clients.GET("/:id", h.auth.RequirePermission(permission.ResourceClients, "read"), h.Get)
		clients.PUT("/:id", h.auth.RequirePermission(permission.ResourceClients, "update"), h.Update)
		clients.DELETE("/:id", h.auth.RequirePermission(permission.ResourceClients, "delete"), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input client.CreateInput
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
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid client ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceClients, "read", recordContext(found)) {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// recordContext exposes a loaded client's ownership attributes for
// record-level authorization. Clients carry no assignee.
func recordContext(cl *model.Client) *permission.ResourceContext {
	return &permission.ResourceContext{
		OwnerID:    cl.OwnerID,
		ShowroomID: &cl.ShowroomID,
	}
}

func (h *Handler) List(c *gin.Context) {
	filter := &model.ClientFilter{Search: c.Query("search")}

	if raw := c.Query("showroom_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid showroom ID"))
			return
		}
		filter.ShowroomID = &id
	}
	if raw := c.Query("page"); raw != "" {
		filter.Pagination.Page, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("page_size"); raw != "" {
		filter.Pagination.PageSize, _ = strconv.Atoi(raw)
	}

	// A conditional grant only covers the principal's own slice, so the
	// filter is pinned to it regardless of what the query asked for.
	// Clients have no assignee column; an assigned-only grant pins to
	// the owner so it cannot widen to the whole book.
	if decision, ok := middleware.DecisionFrom(c); ok && decision.Conditions != nil {
		principal, _ := middleware.PrincipalFrom(c)
		selfID := principal.UserID
		if decision.Conditions.OwnOnly || decision.Conditions.AssignedOnly {
			filter.OwnerID = &selfID
		}
		if decision.Conditions.ShowroomOnly {
			filter.ShowroomID = principal.ShowroomID
		}
	}

	clients, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clients))
}

func (h *Handler) Update(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid client ID"))
		return
	}

	var input client.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceClients, "update", recordContext(existing)) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), principal, id, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid client ID"))
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceClients, "delete", recordContext(existing)) {
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
