package eta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidride/prediction-service/pkg/config"
)

func writeArtifact(t *testing.T, artifact modelArtifact) string {
	t.Helper()
	raw, err := json.Marshal(artifact)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "eta_model.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func linearArtifact() modelArtifact {
	// eta = 600 + 60 * distance_km
	return modelArtifact{
		Coefficients: []float64{60},
		Intercept:    600,
		ScalerMean:   []float64{0},
		ScalerScale:  []float64{1},
		FeatureNames: []string{"distance_km"},
	}
}

func TestPredict_ModelPath(t *testing.T) {
	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, linearArtifact()),
		AvgSpeedKmh: 30,
	})

	prediction, err := engine.Predict(FeatureVector{"distance_km": 5})
	require.NoError(t, err)

	assert.Equal(t, "model", prediction.Source)
	assert.Equal(t, 900, prediction.ETASeconds)
	assert.Equal(t, 0.85, prediction.Confidence)
	assert.True(t, engine.ModelLoaded())
}

func TestPredict_ScalerApplied(t *testing.T) {
	artifact := linearArtifact()
	artifact.ScalerMean = []float64{5}
	artifact.ScalerScale = []float64{2}

	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, artifact),
		AvgSpeedKmh: 30,
	})

	// scaled = (9 - 5) / 2 = 2; eta = 600 + 60*2 = 720
	prediction, err := engine.Predict(FeatureVector{"distance_km": 9})
	require.NoError(t, err)
	assert.Equal(t, 720, prediction.ETASeconds)
}

func TestPredict_HigherConfidenceWithHistory(t *testing.T) {
	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, linearArtifact()),
		AvgSpeedKmh: 30,
	})

	prediction, err := engine.Predict(FeatureVector{
		"distance_km":         5,
		"historical_mean_eta": 850,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.95, prediction.Confidence)
}

func TestPredict_MissingDeclaredFeatureScoresAsZero(t *testing.T) {
	artifact := modelArtifact{
		Coefficients: []float64{60, 100},
		Intercept:    600,
		ScalerMean:   []float64{0, 0},
		ScalerScale:  []float64{1, 1},
		FeatureNames: []string{"distance_km", "is_rush_hour"},
	}
	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, artifact),
		AvgSpeedKmh: 30,
	})

	// is_rush_hour absent from the vector contributes nothing
	prediction, err := engine.Predict(FeatureVector{"distance_km": 5})
	require.NoError(t, err)
	assert.Equal(t, 900, prediction.ETASeconds)
}

func TestPredict_NegativeScoreClampedToZero(t *testing.T) {
	artifact := linearArtifact()
	artifact.Intercept = -10000

	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, artifact),
		AvgSpeedKmh: 30,
	})

	prediction, err := engine.Predict(FeatureVector{"distance_km": 1})
	require.NoError(t, err)
	assert.Equal(t, 0, prediction.ETASeconds)
}

func TestPredict_MissingDistanceIsHardError(t *testing.T) {
	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, linearArtifact()),
		AvgSpeedKmh: 30,
	})

	_, err := engine.Predict(FeatureVector{"traffic_level": 1.0})
	assert.Error(t, err)
}

func TestPredict_BaselineWhenArtifactMissing(t *testing.T) {
	engine := NewEngine(config.ModelConfig{
		Path:        filepath.Join(t.TempDir(), "nope.json"),
		AvgSpeedKmh: 30,
	})

	prediction, err := engine.Predict(FeatureVector{
		"distance_km":   30,
		"traffic_level": 1.0,
	})
	require.NoError(t, err)

	assert.Equal(t, "baseline", prediction.Source)
	assert.Equal(t, 3600, prediction.ETASeconds)
	assert.Equal(t, 0.70, prediction.Confidence)
	assert.False(t, engine.ModelLoaded())
}

func TestPredict_BaselineSlowsWithTraffic(t *testing.T) {
	engine := NewEngine(config.ModelConfig{
		Path:        filepath.Join(t.TempDir(), "nope.json"),
		AvgSpeedKmh: 30,
	})

	clear, err := engine.Predict(FeatureVector{"distance_km": 30, "traffic_level": 1.0})
	require.NoError(t, err)
	congested, err := engine.Predict(FeatureVector{"distance_km": 30, "traffic_level": 2.0})
	require.NoError(t, err)

	assert.Equal(t, 2*clear.ETASeconds, congested.ETASeconds)
}

func TestPredict_CorruptArtifactFallsBackForever(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eta_model.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	engine := NewEngine(config.ModelConfig{Path: path, AvgSpeedKmh: 30})

	for i := 0; i < 3; i++ {
		prediction, err := engine.Predict(FeatureVector{"distance_km": 10, "traffic_level": 1.0})
		require.NoError(t, err)
		assert.Equal(t, "baseline", prediction.Source)
	}
	assert.False(t, engine.ModelLoaded())
}

func TestPredict_MismatchedArtifactRejected(t *testing.T) {
	artifact := linearArtifact()
	artifact.Coefficients = []float64{60, 1} // longer than feature_names

	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, artifact),
		AvgSpeedKmh: 30,
	})

	prediction, err := engine.Predict(FeatureVector{"distance_km": 10, "traffic_level": 1.0})
	require.NoError(t, err)
	assert.Equal(t, "baseline", prediction.Source)
}

func TestModelLoaded_ConcurrentWithPredict(t *testing.T) {
	engine := NewEngine(config.ModelConfig{
		Path:        writeArtifact(t, linearArtifact()),
		AvgSpeedKmh: 30,
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Predict(FeatureVector{"distance_km": 5})
			assert.NoError(t, err)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.ModelLoaded()
		}()
	}
	wg.Wait()

	assert.True(t, engine.ModelLoaded())
}
