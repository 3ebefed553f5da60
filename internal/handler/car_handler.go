package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivio/service-rental/internal/application"
	"github.com/drivio/service-rental/internal/response"
)

// CarHandler serves the public car listing endpoints.
type CarHandler struct {
	service *application.CarService
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(service *application.CarService) *CarHandler {
	return &CarHandler{service: service}
}

// RegisterRoutes registers the public car routes.
func (h *CarHandler) RegisterRoutes(r *gin.RouterGroup) {
	cars := r.Group("/api/cars")
	{
		cars.GET("", h.ListCars)
		cars.GET("/:id", h.GetCar)
	}
}

// ListCars handles GET /api/cars.
func (h *CarHandler) ListCars(c *gin.Context) {
	cars, err := h.service.ListAvailable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"cars": cars})
}

// GetCar handles GET /api/cars/:id.
func (h *CarHandler) GetCar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid car ID")
		return
	}

	car, err := h.service.GetCar(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"car": car})
}
