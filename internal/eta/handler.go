package eta

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/internal/jobs"
	"github.com/rapidride/prediction-service/pkg/common"
	"github.com/rapidride/prediction-service/pkg/eventbus"
	"github.com/rapidride/prediction-service/pkg/logger"
	"github.com/rapidride/prediction-service/pkg/models"
	"github.com/rapidride/prediction-service/pkg/validation"
)

// PredictRequest is the JSON body for ETA prediction, sync and async.
type PredictRequest struct {
	Origin            *models.Coordinate `json:"origin" binding:"required"`
	Destination       *models.Coordinate `json:"destination" binding:"required"`
	Timestamp         string             `json:"timestamp" binding:"required"`
	TrafficLevel      *float64           `json:"traffic_level" validate:"omitnil,traffic_level"`
	HistoricalMeanETA *float64           `json:"historical_mean_eta" validate:"omitnil,gte=0"`
	UserID            string             `json:"user_id"`
}

func (r *PredictRequest) toRideRequest() *models.RideRequest {
	trafficLevel := 1.0
	if r.TrafficLevel != nil {
		trafficLevel = *r.TrafficLevel
	}
	return &models.RideRequest{
		Origin:            *r.Origin,
		Destination:       *r.Destination,
		Timestamp:         r.Timestamp,
		TrafficLevel:      trafficLevel,
		HistoricalMeanETA: r.HistoricalMeanETA,
		UserID:            r.UserID,
	}
}

type Handler struct {
	service *Service
	tracker *jobs.Tracker
	bus     *eventbus.Bus
}

// NewHandler wires the ETA endpoints. bus may be nil when events are
// disabled.
func NewHandler(service *Service, tracker *jobs.Tracker, bus *eventbus.Bus) *Handler {
	return &Handler{service: service, tracker: tracker, bus: bus}
}

func (h *Handler) bindRequest(c *gin.Context) (*PredictRequest, bool) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	if err := validation.ValidateStruct(&req); err != nil {
		common.AppErrorResponse(c, err)
		return nil, false
	}
	return &req, true
}

// Predict handles POST /predict/eta.
func (h *Handler) Predict(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	estimate, err := h.service.Predict(c.Request.Context(), req.toRideRequest())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// PredictAsync handles POST /predict/eta/async. The prediction runs on the
// worker pool; the caller polls the status endpoint for the result.
func (h *Handler) PredictAsync(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	rideReq := req.toRideRequest()
	jobID, err := h.tracker.Submit(c.Request.Context(), func(ctx context.Context) (interface{}, error) {
		return h.service.Predict(ctx, rideReq)
	})
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "prediction queue is full, try again later")
			return
		}
		common.AppErrorResponse(c, err)
		return
	}

	h.publishRequested(jobID, rideReq)

	c.JSON(http.StatusOK, gin.H{
		"job_id":  jobID,
		"status":  string(jobs.StatePending),
		"message": "ETA prediction job accepted",
	})
}

// JobStatus handles GET /predict/eta/status/:job_id.
func (h *Handler) JobStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.tracker.Status(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "job not found")
			return
		}
		common.AppErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *Handler) publishRequested(jobID string, req *models.RideRequest) {
	if h.bus == nil {
		return
	}
	go func() {
		event, err := eventbus.NewEvent(eventbus.SubjectETARequested, "prediction-service", eventbus.ETARequestedData{
			JobID:        jobID,
			OriginLat:    req.Origin.Lat,
			OriginLng:    req.Origin.Lng,
			DestLat:      req.Destination.Lat,
			DestLng:      req.Destination.Lng,
			TrafficLevel: req.TrafficLevel,
			RequestedAt:  time.Now().UTC(),
		})
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.bus.Publish(ctx, eventbus.SubjectETARequested, event); err != nil {
			logger.Warn("failed to publish eta requested event", zap.Error(err))
		}
	}()
}

// RegisterRoutes mounts the prediction endpoints on the router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/predict/eta", h.Predict)
	router.POST("/predict/eta/async", h.PredictAsync)
	router.GET("/predict/eta/status/:job_id", h.JobStatus)
}
