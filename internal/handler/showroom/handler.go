package showroom

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/service/showroom"
)

type Handler struct {
	service *showroom.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *showroom.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	showrooms := rg.Group("/showrooms")
	{
		showrooms.POST("", h.auth.RequirePermission(permission.ResourceShowrooms, "create"), h.Create)
		showrooms.GET("", h.List)
		showrooms.GET("/:id", h.Get)
		showrooms.PATCH("/:id", h.auth.RequirePermission(permission.ResourceShowrooms, "update"), h.Update)
	}
}

func (h *Handler) Create(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input showroom.CreateInput
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
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid showroom ID"))
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
	showrooms, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(showrooms))
}

func (h *Handler) Update(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid showroom ID"))
		return
	}

	var input showroom.UpdateInput
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
