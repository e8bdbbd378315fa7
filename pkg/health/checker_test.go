package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEndpointChecker_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	check := HTTPEndpointChecker(srv.URL)
	assert.NoError(t, check())
}

func TestHTTPEndpointChecker_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	check := HTTPEndpointChecker(srv.URL)
	assert.Error(t, check())
}

func TestHTTPEndpointChecker_Unreachable(t *testing.T) {
	check := HTTPEndpointCheckerWithConfig("http://127.0.0.1:1", CheckerConfig{Timeout: 200 * time.Millisecond})
	assert.Error(t, check())
}

func TestCachedChecker_CachesResult(t *testing.T) {
	calls := 0
	check := NewCachedChecker(func() error {
		calls++
		return nil
	}, time.Minute)

	require.NoError(t, check.Check())
	require.NoError(t, check.Check())
	assert.Equal(t, 1, calls)
}

func TestCachedChecker_ExpiresAndReruns(t *testing.T) {
	calls := 0
	check := NewCachedChecker(func() error {
		calls++
		return errors.New("down")
	}, time.Nanosecond)

	assert.Error(t, check.Check())
	time.Sleep(time.Millisecond)
	assert.Error(t, check.Check())
	assert.Equal(t, 2, calls)
}

func TestRedisChecker_NilClient(t *testing.T) {
	check := RedisChecker(nil)
	assert.Error(t, check())
}

func TestDatabaseChecker_NilPool(t *testing.T) {
	check := DatabaseChecker(nil)
	assert.Error(t, check())
}

func TestHandler_AllHealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", Handler("1.0.0", Probes{
		ModelLoaded:    func() bool { return true },
		QueueConnected: func() bool { return true },
		RedisHealthy:   func() error { return nil },
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.ModelLoaded)
	assert.True(t, status.QueueConnected)
	assert.True(t, status.RedisConnected)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestHandler_DegradedWhenRedisDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", Handler("1.0.0", Probes{
		ModelLoaded:    func() bool { return true },
		QueueConnected: func() bool { return true },
		RedisHealthy:   func() error { return errors.New("connection refused") },
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.RedisConnected)
}
