package eta

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rapidride/prediction-service/pkg/models"
)

// StoredPrediction is a served ETA persisted for later accuracy analysis
// and route-history lookups.
type StoredPrediction struct {
	ID           int       `json:"id"`
	OriginLat    float64   `json:"origin_lat"`
	OriginLng    float64   `json:"origin_lng"`
	DestLat      float64   `json:"dest_lat"`
	DestLng      float64   `json:"dest_lng"`
	DistanceKm   float64   `json:"distance_km"`
	TrafficLevel float64   `json:"traffic_level"`
	ETASeconds   int       `json:"eta_seconds"`
	Confidence   float64   `json:"confidence"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

// PredictionRepository defines the persistence operations needed by the service.
type PredictionRepository interface {
	StorePrediction(ctx context.Context, prediction *StoredPrediction) error
	HistoricalMeanETA(ctx context.Context, origin, dest models.Coordinate) (float64, error)
}

type Repository struct {
	db *pgxpool.Pool
}

var _ PredictionRepository = (*Repository)(nil)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// StorePrediction records a served prediction.
func (r *Repository) StorePrediction(ctx context.Context, prediction *StoredPrediction) error {
	query := `
		INSERT INTO eta_predictions (
			origin_lat, origin_lng, dest_lat, dest_lng,
			distance_km, traffic_level, eta_seconds, confidence, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		prediction.OriginLat,
		prediction.OriginLng,
		prediction.DestLat,
		prediction.DestLng,
		prediction.DistanceKm,
		prediction.TrafficLevel,
		prediction.ETASeconds,
		prediction.Confidence,
		prediction.Source,
		prediction.CreatedAt,
	).Scan(&prediction.ID)
	if err != nil {
		return fmt.Errorf("failed to store prediction: %w", err)
	}

	return nil
}

// HistoricalMeanETA averages past ETAs for routes between the same grid
// cells. Returns 0 with no error when the route has no history.
func (r *Repository) HistoricalMeanETA(ctx context.Context, origin, dest models.Coordinate) (float64, error) {
	query := `
		SELECT COALESCE(AVG(eta_seconds), 0)
		FROM eta_predictions
		WHERE floor(origin_lat / 0.1) = floor($1::float8 / 0.1)
		  AND floor(origin_lng / 0.1) = floor($2::float8 / 0.1)
		  AND floor(dest_lat / 0.1) = floor($3::float8 / 0.1)
		  AND floor(dest_lng / 0.1) = floor($4::float8 / 0.1)
		  AND created_at > NOW() - INTERVAL '30 days'
	`

	var mean float64
	err := r.db.QueryRow(ctx, query, origin.Lat, origin.Lng, dest.Lat, dest.Lng).Scan(&mean)
	if err != nil {
		return 0, fmt.Errorf("failed to query route history: %w", err)
	}

	return mean, nil
}
