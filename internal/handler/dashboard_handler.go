package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/drivio/service-rental/internal/application"
	"github.com/drivio/service-rental/internal/auth"
	"github.com/drivio/service-rental/internal/middleware"
	"github.com/drivio/service-rental/internal/response"
)

// DashboardHandler serves the owner dashboard endpoint.
type DashboardHandler struct {
	service *application.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *application.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// RegisterRoutes registers the owner dashboard route.
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	owner := r.Group("/api/owner")
	owner.Use(middleware.Auth(jwtManager), middleware.RequireRole(auth.RoleOwner))
	{
		owner.GET("/dashboard", h.Dashboard)
	}
}

// Dashboard handles GET /api/owner/dashboard.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	snapshot, err := h.service.Dashboard(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"dashboardData": snapshot})
}
