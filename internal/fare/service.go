package fare

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/pkg/cache"
	"github.com/rapidride/prediction-service/pkg/eventbus"
	"github.com/rapidride/prediction-service/pkg/geomath"
	"github.com/rapidride/prediction-service/pkg/logger"
	"github.com/rapidride/prediction-service/pkg/models"
)

// Service computes fare quotes with a cache-aside layer in front of the
// calculator. Cache failures degrade to recomputation, never to errors.
type Service struct {
	calc  *Calculator
	cache *cache.Manager
	bus   *eventbus.Bus
}

// NewService wires the fare pipeline. bus may be nil when events are disabled.
func NewService(calc *Calculator, cacheManager *cache.Manager, bus *eventbus.Bus) *Service {
	return &Service{
		calc:  calc,
		cache: cacheManager,
		bus:   bus,
	}
}

// Quote returns the fare for a trip, serving from cache when possible.
func (s *Service) Quote(ctx context.Context, origin, dest models.Coordinate, trafficLevel float64) (*models.FareQuote, error) {
	key := cache.Keys.Fare(origin, dest, trafficLevel)

	var cached models.FareQuote
	if s.cache.Get(ctx, key, &cached) {
		logger.Debug("fare cache hit", zap.String("key", key))
		return &cached, nil
	}

	distance := geomath.DistanceKm(origin, dest)
	quote := &models.FareQuote{
		Fare:       s.calc.Calculate(distance, trafficLevel),
		DistanceKm: distance,
		Currency:   s.calc.Currency(),
	}

	s.cache.SetAsync(key, quote, cache.TTL.Fare())
	s.publishQuoted(quote)

	return quote, nil
}

func (s *Service) publishQuoted(quote *models.FareQuote) {
	if s.bus == nil {
		return
	}
	go func() {
		event, err := eventbus.NewEvent(eventbus.SubjectFareQuoted, "prediction-service", eventbus.FareQuotedData{
			Fare:       quote.Fare,
			DistanceKm: quote.DistanceKm,
			Currency:   quote.Currency,
			QuotedAt:   time.Now().UTC(),
		})
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.bus.Publish(ctx, eventbus.SubjectFareQuoted, event); err != nil {
			logger.Warn("failed to publish fare quoted event", zap.Error(err))
		}
	}()
}
