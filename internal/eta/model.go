package eta

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/pkg/common"
	"github.com/rapidride/prediction-service/pkg/config"
	"github.com/rapidride/prediction-service/pkg/logger"
)

// modelArtifact is the trained scorer bundle persisted as a single JSON
// file: a linear model, the standard-scaler parameters it was trained
// with, and the feature schema in training order.
type modelArtifact struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	ScalerMean   []float64 `json:"scaler_mean"`
	ScalerScale  []float64 `json:"scaler_scale"`
	FeatureNames []string  `json:"feature_names"`
}

func (m *modelArtifact) validate() error {
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("artifact declares no features")
	}
	if len(m.Coefficients) != len(m.FeatureNames) {
		return fmt.Errorf("coefficients/features length mismatch: %d vs %d", len(m.Coefficients), len(m.FeatureNames))
	}
	if len(m.ScalerMean) != len(m.FeatureNames) || len(m.ScalerScale) != len(m.FeatureNames) {
		return fmt.Errorf("scaler/features length mismatch")
	}
	return nil
}

// Engine predicts trip ETAs. The model artifact is loaded lazily on the
// first prediction; if loading fails the engine serves the heuristic
// baseline for the rest of the process lifetime.
type Engine struct {
	path        string
	avgSpeedKmh float64

	loadOnce sync.Once
	model    atomic.Pointer[modelArtifact] // nil when load failed or not yet attempted
}

// NewEngine creates an engine. The artifact at cfg.Path is not touched
// until the first Predict call.
func NewEngine(cfg config.ModelConfig) *Engine {
	return &Engine{
		path:        cfg.Path,
		avgSpeedKmh: cfg.AvgSpeedKmh,
	}
}

// ModelLoaded reports whether the trained model is in memory. It stays
// false until the first prediction triggers the load and is safe to call
// from health probes concurrent with predictions.
func (e *Engine) ModelLoaded() bool {
	return e.model.Load() != nil
}

func (e *Engine) load() {
	raw, err := os.ReadFile(e.path)
	if err != nil {
		logger.Warn("model artifact unavailable, serving baseline predictions",
			zap.String("path", e.path),
			zap.Error(err),
		)
		return
	}

	var artifact modelArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		logger.Warn("model artifact unreadable, serving baseline predictions",
			zap.String("path", e.path),
			zap.Error(err),
		)
		return
	}
	if err := artifact.validate(); err != nil {
		logger.Warn("model artifact invalid, serving baseline predictions",
			zap.String("path", e.path),
			zap.Error(err),
		)
		return
	}

	e.model.Store(&artifact)
	logger.Info("prediction model loaded",
		zap.String("path", e.path),
		zap.Int("features", len(artifact.FeatureNames)),
	)
}

// Prediction is a scored ETA with the path that produced it.
type Prediction struct {
	ETASeconds int
	Confidence float64
	Source     string // "model" or "baseline"
}

// Predict scores a feature vector. distance_km is the only hard
// requirement; everything else degrades gracefully.
func (e *Engine) Predict(features FeatureVector) (*Prediction, error) {
	distance, ok := features["distance_km"]
	if !ok {
		return nil, common.NewComputationError("distance_km feature is required", nil)
	}

	e.loadOnce.Do(e.load)

	model := e.model.Load()
	if model == nil {
		return e.baseline(distance, features), nil
	}

	eta := model.Intercept
	for i, name := range model.FeatureNames {
		value := features[name] // absent features score as zero

		scale := model.ScalerScale[i]
		if scale == 0 {
			scale = 1
		}
		scaled := (value - model.ScalerMean[i]) / scale
		eta += model.Coefficients[i] * scaled
	}

	if eta < 0 {
		eta = 0
	}

	confidence := 0.85
	if _, ok := features["historical_mean_eta"]; ok {
		confidence = 0.95
	}

	return &Prediction{
		ETASeconds: int(math.Round(eta)),
		Confidence: confidence,
		Source:     "model",
	}, nil
}

// baseline estimates travel time from distance and an average city speed
// slowed by the traffic multiplier.
func (e *Engine) baseline(distanceKm float64, features FeatureVector) *Prediction {
	traffic := features["traffic_level"]
	if traffic <= 0 {
		traffic = 1.0
	}

	speed := e.avgSpeedKmh / traffic
	eta := math.Round(distanceKm / speed * 3600)

	return &Prediction{
		ETASeconds: int(eta),
		Confidence: 0.70,
		Source:     "baseline",
	}
}
