package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rapidride/prediction-service/pkg/cache"
	redisclient "github.com/rapidride/prediction-service/pkg/redis"
	"github.com/rapidride/prediction-service/test/mocks"
)

func TestRedisStore_SaveAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(&redisclient.Client{Client: db}, time.Hour)

	job := &Job{
		ID:        "7b54e0a0-0000-0000-0000-000000000001",
		State:     StatePending,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	payload, err := json.Marshal(job)
	require.NoError(t, err)

	key := cache.Keys.Job(job.ID)
	mock.ExpectSet(key, string(payload), time.Hour).SetVal("OK")
	mock.ExpectGet(key).SetVal(string(payload))

	require.NoError(t, store.Save(context.Background(), job))

	loaded, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, loaded.ID)
	assert.Equal(t, StatePending, loaded.State)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetUnknownIsNotFound(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(&redisclient.Client{Client: db}, time.Hour)

	key := cache.Keys.Job("missing")
	mock.ExpectGet(key).RedisNil()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRedisStore_GetCorruptRecordErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(&redisclient.Client{Client: db}, time.Hour)

	mock.ExpectGet(cache.Keys.Job("bad")).SetVal("{truncated")

	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrJobNotFound)
}

func TestRedisStore_SaveBackendErrorPropagates(t *testing.T) {
	client := new(mocks.MockRedisClient)
	client.On("SetWithExpiration", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	store := NewRedisStore(client, time.Hour)
	err := store.Save(context.Background(), &Job{ID: "x", State: StatePending})

	assert.Error(t, err)
	client.AssertExpectations(t)
}
