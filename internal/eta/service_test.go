package eta

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidride/prediction-service/pkg/cache"
	"github.com/rapidride/prediction-service/pkg/config"
	"github.com/rapidride/prediction-service/pkg/models"
	redisclient "github.com/rapidride/prediction-service/pkg/redis"
)

type fakeRepo struct {
	mean    float64
	meanErr error
	stored  chan *StoredPrediction
}

func (f *fakeRepo) StorePrediction(_ context.Context, p *StoredPrediction) error {
	if f.stored != nil {
		f.stored <- p
	}
	return nil
}

func (f *fakeRepo) HistoricalMeanETA(_ context.Context, _, _ models.Coordinate) (float64, error) {
	return f.mean, f.meanErr
}

func baselineEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(config.ModelConfig{
		Path:        filepath.Join(t.TempDir(), "absent.json"),
		AvgSpeedKmh: 30,
	})
}

func bangaloreRequest() *models.RideRequest {
	return &models.RideRequest{
		Origin:       models.Coordinate{Lat: 12.9716, Lng: 77.5946},
		Destination:  models.Coordinate{Lat: 12.9352, Lng: 77.6245},
		TrafficLevel: 1.0,
	}
}

func TestServicePredict_Baseline(t *testing.T) {
	service := NewService(baselineEngine(t), cache.NewManager(nil), nil)

	estimate, err := service.Predict(context.Background(), bangaloreRequest())
	require.NoError(t, err)

	// 7.134 km at 30 km/h
	assert.Equal(t, 856, estimate.ETASeconds)
	assert.Equal(t, 0.70, estimate.Confidence)
}

func TestServicePredict_CacheHitSkipsEngine(t *testing.T) {
	db, mock := redismock.NewClientMock()
	manager := cache.NewManager(&redisclient.Client{Client: db})

	req := bangaloreRequest()
	cached := models.ETAEstimate{ETASeconds: 777, Confidence: 0.95}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	mock.ExpectGet(cache.Keys.ETA(req.Origin, req.Destination, req.TrafficLevel)).SetVal(string(payload))

	service := NewService(baselineEngine(t), manager, nil)

	estimate, err := service.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 777, estimate.ETASeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServicePredict_EnrichesFromRouteHistory(t *testing.T) {
	repo := &fakeRepo{mean: 840, stored: make(chan *StoredPrediction, 1)}
	service := NewService(baselineEngine(t), cache.NewManager(nil), repo)

	req := bangaloreRequest()
	_, err := service.Predict(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, req.HistoricalMeanETA)
	assert.Equal(t, 840.0, *req.HistoricalMeanETA)

	stored := <-repo.stored
	assert.Equal(t, "baseline", stored.Source)
	assert.InDelta(t, 7.134, stored.DistanceKm, 0.01)
}

func TestServicePredict_HistoryLookupFailureIsNonFatal(t *testing.T) {
	repo := &fakeRepo{meanErr: errors.New("db down")}
	service := NewService(baselineEngine(t), cache.NewManager(nil), repo)

	estimate, err := service.Predict(context.Background(), bangaloreRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.70, estimate.Confidence)
}

func TestServicePredict_SuppliedHistorySkipsLookup(t *testing.T) {
	repo := &fakeRepo{meanErr: errors.New("should not be called")}
	service := NewService(baselineEngine(t), cache.NewManager(nil), repo)

	mean := 900.0
	req := bangaloreRequest()
	req.HistoricalMeanETA = &mean

	_, err := service.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 900.0, *req.HistoricalMeanETA)
}
