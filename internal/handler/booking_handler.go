package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/drivio/service-rental/internal/application"
	"github.com/drivio/service-rental/internal/auth"
	"github.com/drivio/service-rental/internal/middleware"
	"github.com/drivio/service-rental/internal/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.Auth(jwtManager)

	bookings := r.Group("/api/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/create", h.CreateBooking)
		bookings.GET("/user", h.ListUserBookings)
		bookings.GET("/owner", middleware.RequireRole(auth.RoleOwner), h.ListOwnerBookings)
		bookings.POST("/change-status", middleware.RequireRole(auth.RoleOwner), h.ChangeStatus)
	}
}

// CreateBooking handles POST /api/bookings/create.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	renterID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), renterID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"booking": result})
}

// ListUserBookings handles GET /api/bookings/user.
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	renterID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	bookings, err := h.service.ListRenterBookings(c.Request.Context(), renterID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"bookings": bookings})
}

// ListOwnerBookings handles GET /api/bookings/owner.
func (h *BookingHandler) ListOwnerBookings(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	bookings, err := h.service.ListOwnerBookings(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"bookings": bookings})
}

// ChangeStatus handles POST /api/bookings/change-status.
func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "status updated", "booking": result})
}
