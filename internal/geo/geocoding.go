package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/pkg/cache"
	"github.com/rapidride/prediction-service/pkg/config"
	"github.com/rapidride/prediction-service/pkg/logger"
	"github.com/rapidride/prediction-service/pkg/resilience"
)

// Address is a reverse-geocoded location.
type Address struct {
	FormattedAddress string `json:"formatted_address"`
}

// nominatimResponse is the subset of the Nominatim reverse payload we use.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// GeocodingService resolves coordinates to addresses through Nominatim.
// Every failure path degrades to a coordinate-based placeholder address so
// callers always get an answer.
type GeocodingService struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Manager
	breaker    *resilience.CircuitBreaker
}

// NewGeocodingService creates a geocoding service.
func NewGeocodingService(cfg config.GeocodeConfig, cacheManager *cache.Manager) *GeocodingService {
	return &GeocodingService{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		cache: cacheManager,
	}
}

// SetCircuitBreaker enables circuit breaker protection for upstream calls.
func (g *GeocodingService) SetCircuitBreaker(cb *resilience.CircuitBreaker) {
	g.breaker = cb
}

// ReverseGeocode converts coordinates to an address. The result is cached
// for a day; upstream failures return the degraded placeholder with no error.
func (g *GeocodingService) ReverseGeocode(ctx context.Context, lat, lng float64) *Address {
	cacheKey := cache.Keys.Geo(lat, lng)

	var cached Address
	if g.cache.Get(ctx, cacheKey, &cached) {
		return &cached
	}

	address, err := g.fetch(ctx, lat, lng)
	if err != nil {
		logger.Warn("reverse geocode failed, serving placeholder",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return fallbackAddress(lat, lng)
	}

	g.cache.SetAsync(cacheKey, address, cache.TTL.Geo())
	return address
}

func (g *GeocodingService) fetch(ctx context.Context, lat, lng float64) (*Address, error) {
	operation := func(ctx context.Context) (interface{}, error) {
		return g.fetchUpstream(ctx, lat, lng)
	}

	var result interface{}
	var err error
	if g.breaker != nil {
		result, err = g.breaker.Execute(ctx, operation)
	} else {
		result, err = operation(ctx)
	}
	if err != nil {
		return nil, err
	}
	return result.(*Address), nil
}

func (g *GeocodingService) fetchUpstream(ctx context.Context, lat, lng float64) (*Address, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lng))
	params.Set("format", "json")

	reqURL := fmt.Sprintf("%s/reverse?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "prediction-service/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read geocode response: %w", err)
	}

	var payload nominatimResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("geocoder error: %s", payload.Error)
	}
	if payload.DisplayName == "" {
		return nil, fmt.Errorf("geocoder returned no address")
	}

	return &Address{FormattedAddress: payload.DisplayName}, nil
}

func fallbackAddress(lat, lng float64) *Address {
	return &Address{FormattedAddress: fmt.Sprintf("Location: %v, %v", lat, lng)}
}
