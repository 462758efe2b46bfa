package permission

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/middleware"
	corepermission "github.com/renovahq/crm-api/internal/permission"
	permissionsvc "github.com/renovahq/crm-api/internal/service/permission"
	templatesvc "github.com/renovahq/crm-api/internal/service/template"
)

type Handler struct {
	permissions *permissionsvc.Service
	templates   *templatesvc.Service
	auth        *middleware.AuthMiddleware
}

func NewHandler(permissions *permissionsvc.Service, templates *templatesvc.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		permissions: permissions,
		templates:   templates,
		auth:        auth,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	perms := rg.Group("/permissions")
	{
		perms.POST("/check", h.Check)
		perms.GET("/grants", h.Grants)
	}

	templates := rg.Group("/templates")
	{
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.POST("", h.auth.RequirePermission(corepermission.ResourceUsers, "manage"), h.CreateTemplate)
		templates.PUT("/:id/default", h.auth.RequirePermission(corepermission.ResourceUsers, "manage"), h.SetDefaultTemplate)
	}
}

// CheckRequest asks whether the caller may perform an action, optionally
// against a concrete target record.
type CheckRequest struct {
	Resource string        `json:"resource" binding:"required"`
	Action   string        `json:"action" binding:"required"`
	Context  *TargetRecord `json:"context,omitempty"`
}

type TargetRecord struct {
	OwnerID        *uuid.UUID `json:"owner_id,omitempty"`
	ShowroomID     *uuid.UUID `json:"showroom_id,omitempty"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`
}

// Check evaluates one permission question for the calling principal.
// Unknown resources or actions come back as denials, not errors.
func (h *Handler) Check(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var resCtx *corepermission.ResourceContext
	if req.Context != nil {
		resCtx = &corepermission.ResourceContext{
			OwnerID:        req.Context.OwnerID,
			ShowroomID:     req.Context.ShowroomID,
			AssignedUserID: req.Context.AssignedUserID,
		}
	}

	decision, err := h.permissions.Check(c.Request.Context(), principal, req.Resource, req.Action, resCtx)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(decision))
}

// Grants returns the caller's active custom grant snapshot.
func (h *Handler) Grants(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	grants, err := h.permissions.EffectiveGrants(c.Request.Context(), principal.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(grants))
}

func (h *Handler) ListTemplates(c *gin.Context) {
	var showroomID *uuid.UUID
	if raw := c.Query("showroom_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid showroom ID"))
			return
		}
		showroomID = &id
	}

	list, err := h.templates.List(c.Request.Context(), showroomID, c.Query("category"))
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid template ID"))
		return
	}

	tmpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tmpl))
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input templatesvc.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.templates.Create(c.Request.Context(), principal, &input)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) SetDefaultTemplate(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid template ID"))
		return
	}

	tmpl, err := h.templates.SetDefault(c.Request.Context(), principal, id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tmpl))
}
