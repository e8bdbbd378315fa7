package geo

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rapidride/prediction-service/pkg/common"
)

type Handler struct {
	service *GeocodingService
}

func NewHandler(service *GeocodingService) *Handler {
	return &Handler{service: service}
}

// Reverse handles GET /geo/reverse?lat=..&lon=..
func (h *Handler) Reverse(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnprocessableEntity, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnprocessableEntity, "lon must be a number")
		return
	}
	if lat < -90 || lat > 90 {
		common.ErrorResponse(c, http.StatusUnprocessableEntity, "lat must be within [-90, 90]")
		return
	}
	if lng < -180 || lng > 180 {
		common.ErrorResponse(c, http.StatusUnprocessableEntity, "lon must be within [-180, 180]")
		return
	}

	address := h.service.ReverseGeocode(c.Request.Context(), lat, lng)
	c.JSON(http.StatusOK, address)
}

// RegisterRoutes mounts the geocoding endpoints on the router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/geo/reverse", h.Reverse)
}
