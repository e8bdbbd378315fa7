package fare

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapidride/prediction-service/pkg/common"
	"github.com/rapidride/prediction-service/pkg/models"
	"github.com/rapidride/prediction-service/pkg/validation"
)

// QuoteRequest is the JSON body for fare calculation.
type QuoteRequest struct {
	Origin       *models.Coordinate `json:"origin" binding:"required"`
	Destination  *models.Coordinate `json:"destination" binding:"required"`
	Timestamp    string             `json:"timestamp" binding:"required"`
	TrafficLevel *float64           `json:"traffic_level" validate:"omitnil,traffic_level"`
	UserID       string             `json:"user_id"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Quote handles POST /fare/calc.
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		common.AppErrorResponse(c, err)
		return
	}

	trafficLevel := 1.0
	if req.TrafficLevel != nil {
		trafficLevel = *req.TrafficLevel
	}

	quote, err := h.service.Quote(c.Request.Context(), *req.Origin, *req.Destination, trafficLevel)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// RegisterRoutes mounts the fare endpoints on the router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/fare/calc", h.Quote)
}
