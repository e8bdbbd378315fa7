package eta

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/pkg/cache"
	"github.com/rapidride/prediction-service/pkg/geomath"
	"github.com/rapidride/prediction-service/pkg/logger"
	"github.com/rapidride/prediction-service/pkg/models"
)

// Service runs the ETA pipeline: distance, features, scoring, caching.
// The repository enriches requests with route history and records served
// predictions; it may be nil when Postgres is disabled.
type Service struct {
	engine *Engine
	cache  *cache.Manager
	repo   PredictionRepository
}

func NewService(engine *Engine, cacheManager *cache.Manager, repo PredictionRepository) *Service {
	return &Service{
		engine: engine,
		cache:  cacheManager,
		repo:   repo,
	}
}

// ModelLoaded reports whether the trained model backs predictions.
func (s *Service) ModelLoaded() bool {
	return s.engine.ModelLoaded()
}

// Predict estimates the ETA for a request, serving from cache when the
// same route and traffic conditions were scored recently.
func (s *Service) Predict(ctx context.Context, req *models.RideRequest) (*models.ETAEstimate, error) {
	key := cache.Keys.ETA(req.Origin, req.Destination, req.TrafficLevel)

	var cached models.ETAEstimate
	if s.cache.Get(ctx, key, &cached) {
		logger.Debug("eta cache hit", zap.String("key", key))
		return &cached, nil
	}

	s.enrichWithHistory(ctx, req)

	distance := geomath.DistanceKm(req.Origin, req.Destination)
	features := BuildFeatureVector(req, distance)

	prediction, err := s.engine.Predict(features)
	if err != nil {
		return nil, err
	}

	estimate := &models.ETAEstimate{
		ETASeconds: prediction.ETASeconds,
		Confidence: prediction.Confidence,
	}

	s.cache.SetAsync(key, estimate, cache.TTL.ETA())
	s.storePrediction(req, distance, prediction)

	return estimate, nil
}

// enrichWithHistory fills in historical_mean_eta from the route history
// when the caller didn't supply one. Lookup failures are logged and the
// request proceeds without enrichment.
func (s *Service) enrichWithHistory(ctx context.Context, req *models.RideRequest) {
	if req.HistoricalMeanETA != nil || s.repo == nil {
		return
	}

	mean, err := s.repo.HistoricalMeanETA(ctx, req.Origin, req.Destination)
	if err != nil {
		logger.Warn("route history lookup failed", zap.Error(err))
		return
	}
	if mean > 0 {
		req.HistoricalMeanETA = &mean
	}
}

// storePrediction records the served prediction in the background.
func (s *Service) storePrediction(req *models.RideRequest, distance float64, prediction *Prediction) {
	if s.repo == nil {
		return
	}

	stored := &StoredPrediction{
		OriginLat:    req.Origin.Lat,
		OriginLng:    req.Origin.Lng,
		DestLat:      req.Destination.Lat,
		DestLng:      req.Destination.Lng,
		DistanceKm:   distance,
		TrafficLevel: req.TrafficLevel,
		ETASeconds:   prediction.ETASeconds,
		Confidence:   prediction.Confidence,
		Source:       prediction.Source,
		CreatedAt:    time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.StorePrediction(ctx, stored); err != nil {
			logger.Warn("failed to store prediction", zap.Error(err))
		}
	}()
}
