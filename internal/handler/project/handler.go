package project

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/pipeline"
	"github.com/renovahq/crm-api/internal/service/project"
)

type Handler struct {
	service *project.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *project.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.GET("/stages", h.Stages)

		projects.POST("", h.auth.RequirePermission(permission.ResourceProjects, "create"), h.Create)
		projects.GET("", h.auth.RequirePermission(permission.ResourceProjects, "read"), h.List)
		projects.GET("/:id", h.auth.RequirePermission(permission.ResourceProjects, "read"), h.Get)
		projects.PUT("/:id", h.auth.RequirePermission(permission.ResourceProjects, "update"), h.Update)
		projects.PATCH("/:id/stage", h.auth.RequirePermission(permission.ResourceProjects, "update"), h.TransitionStage)
	}
}

// Stages returns the ordered pipeline so clients never hard-code it.
func (h *Handler) Stages(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(pipeline.Stages()))
}

func (h *Handler) Create(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input project.CreateInput
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
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceProjects, "read", recordContext(found)) {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// recordContext exposes a loaded project's ownership attributes for
// record-level authorization.
func recordContext(p *model.Project) *permission.ResourceContext {
	return &permission.ResourceContext{
		OwnerID:        p.OwnerID,
		ShowroomID:     &p.ShowroomID,
		AssignedUserID: p.AssignedUserID,
	}
}

func (h *Handler) List(c *gin.Context) {
	filter := &model.ProjectFilter{}

	if raw := c.Query("showroom_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid showroom ID"))
			return
		}
		filter.ShowroomID = &id
	}
	if raw := c.Query("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid client ID"))
			return
		}
		filter.ClientID = &id
	}
	if raw := c.Query("stage"); raw != "" {
		stage, ok := pipeline.ParseStage(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown stage"))
			return
		}
		filter.Stage = &stage
	}
	if raw := c.Query("page"); raw != "" {
		filter.Pagination.Page, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("page_size"); raw != "" {
		filter.Pagination.PageSize, _ = strconv.Atoi(raw)
	}

	// A conditional grant only covers the principal's own slice, so the
	// filter is pinned to it regardless of what the query asked for.
	if decision, ok := middleware.DecisionFrom(c); ok && decision.Conditions != nil {
		principal, _ := middleware.PrincipalFrom(c)
		selfID := principal.UserID
		if decision.Conditions.OwnOnly {
			filter.OwnerID = &selfID
		}
		if decision.Conditions.AssignedOnly {
			filter.AssignedUserID = &selfID
		}
		if decision.Conditions.ShowroomOnly {
			filter.ShowroomID = principal.ShowroomID
		}
	}

	projects, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(projects))
}

func (h *Handler) Update(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	var input project.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceProjects, "update", recordContext(existing)) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), principal, id, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

// TransitionStage requests a single-step pipeline move. The body carries
// the caller's last-seen version; a stale version yields 409.
func (h *Handler) TransitionStage(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	var input project.TransitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	if !h.auth.AuthorizeRecord(c, permission.ResourceProjects, "update", recordContext(existing)) {
		return
	}

	updated, err := h.service.TransitionStage(c.Request.Context(), principal, id, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}
