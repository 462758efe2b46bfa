package audit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/handler"
	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *audit.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit-logs", h.auth.RequirePermission(permission.ResourceSettings, "read"), h.List)
}

func (h *Handler) List(c *gin.Context) {
	filter := &model.AuditFilter{EntityType: c.Query("entity_type")}

	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
			return
		}
		filter.UserID = &id
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("since must be RFC3339"))
			return
		}
		filter.Since = &since
	}

	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
