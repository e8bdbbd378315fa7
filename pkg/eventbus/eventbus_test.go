package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Success(t *testing.T) {
	data := map[string]string{"job_id": "abc"}

	event, err := NewEvent("predictions.eta.requested", "prediction-service", data)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, "predictions.eta.requested", event.Type)
	assert.Equal(t, "prediction-service", event.Source)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	// ID should be a valid UUID
	_, err = uuid.Parse(event.ID)
	assert.NoError(t, err)

	// Data should be valid JSON
	var decoded map[string]string
	err = json.Unmarshal(event.Data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "abc", decoded["job_id"])
}

func TestNewEvent_NilData(t *testing.T) {
	event, err := NewEvent("predictions.eta.failed", "prediction-service", nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(event.Data))
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("predictions.eta.requested", "prediction-service", make(chan int))
	assert.Error(t, err)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		event, err := NewEvent("predictions.fare.quoted", "prediction-service", nil)
		require.NoError(t, err)
		assert.False(t, seen[event.ID], "duplicate event ID: %s", event.ID)
		seen[event.ID] = true
	}
}

func TestNewEvent_TimestampIsUTC(t *testing.T) {
	event, err := NewEvent("predictions.eta.completed", "prediction-service", nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	original, err := NewEvent("predictions.eta.completed", "prediction-service", map[string]int{"eta_seconds": 900})
	require.NoError(t, err)

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Type, decoded.Type)
	assert.Equal(t, original.Source, decoded.Source)
}

func TestSubjectConstants(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"ETARequested", SubjectETARequested, "predictions.eta.requested"},
		{"ETACompleted", SubjectETACompleted, "predictions.eta.completed"},
		{"ETAFailed", SubjectETAFailed, "predictions.eta.failed"},
		{"FareQuoted", SubjectFareQuoted, "predictions.fare.quoted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.subject)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "prediction-service", cfg.Name)
	assert.Equal(t, "PREDICTIONS", cfg.StreamName)
	assert.NotEmpty(t, cfg.URL)
}

func TestHandlerFunc_Invocation(t *testing.T) {
	var got *Event
	handler := HandlerFunc(func(_ context.Context, event *Event) error {
		got = event
		return nil
	})

	event, err := NewEvent("predictions.eta.requested", "prediction-service", nil)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, event.ID, got.ID)
}

func TestHandlerFunc_ReturnsError(t *testing.T) {
	wantErr := errors.New("handler failed")
	handler := HandlerFunc(func(_ context.Context, _ *Event) error {
		return wantErr
	})

	event, err := NewEvent("predictions.eta.requested", "prediction-service", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, handler(context.Background(), event), wantErr)
}

func TestETARequestedData_Serialization(t *testing.T) {
	data := ETARequestedData{
		JobID:        uuid.New().String(),
		OriginLat:    12.9716,
		OriginLng:    77.5946,
		DestLat:      12.9352,
		DestLng:      77.6245,
		TrafficLevel: 1.5,
		RequestedAt:  time.Now().UTC(),
	}

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded ETARequestedData
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, data.JobID, decoded.JobID)
	assert.Equal(t, data.TrafficLevel, decoded.TrafficLevel)
	assert.InDelta(t, data.OriginLat, decoded.OriginLat, 1e-9)
}

func TestETACompletedData_Serialization(t *testing.T) {
	data := ETACompletedData{
		JobID:       uuid.New().String(),
		ETASeconds:  912.5,
		Confidence:  0.85,
		CompletedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded ETACompletedData
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, data.ETASeconds, decoded.ETASeconds)
	assert.Equal(t, data.Confidence, decoded.Confidence)
}

func TestBus_Connected_NilConn(t *testing.T) {
	bus := &Bus{}
	assert.False(t, bus.Connected())
}

func TestBus_Close_NoSubs(t *testing.T) {
	bus := &Bus{}
	assert.NotPanics(t, func() { bus.Close() })
}
