package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rapidride/prediction-service/pkg/cache"
	redisclient "github.com/rapidride/prediction-service/pkg/redis"
)

// ErrJobNotFound is returned when a job ID has no record. Callers map it
// to a 404; it is distinct from a job that exists in a failed state.
var ErrJobNotFound = errors.New("job not found")

// State is the lifecycle phase of an async job. Transitions only move
// forward; completed and failed are terminal.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Job is the persisted record of an async prediction.
type Job struct {
	ID        string          `json:"job_id"`
	State     State           `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store persists job records. Implementations own record retention.
type Store interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
}

// RedisStore keeps job records in redis with a retention TTL, so finished
// jobs expire without a sweeper.
type RedisStore struct {
	redis     redisclient.ClientInterface
	retention time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redisclient.ClientInterface, retention time.Duration) *RedisStore {
	return &RedisStore{redis: client, retention: retention}
}

func (s *RedisStore) Save(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	if err := s.redis.SetWithExpiration(ctx, cache.Keys.Job(job.ID), string(payload), s.retention); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	payload, err := s.redis.GetString(ctx, cache.Keys.Job(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// MemoryStore keeps job records in a mutex-guarded map. It backs tests and
// keeps async predictions working when redis is down.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}
