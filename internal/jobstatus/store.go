// Package jobstatus keeps the progress of a ranking job in redis so other processes can poll it.
package jobstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "care-matcher:status:"
	DefaultTTL = 24 * time.Hour
)

// ErrNotFound is returned when no status exists for a job.
var ErrNotFound = errors.New("job status not found")

type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateError      State = "error"
)

// Status is the externally visible state of a ranking job.
type Status struct {
	State       State     `json:"state"`
	Progress    int       `json:"progress"`
	CurrentStep string    `json:"currentStep,omitempty"`
	MatchCount  int       `json:"matchCount"`
	Error       string    `json:"error,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Store persists job statuses.
type Store interface {
	Set(ctx context.Context, jobID string, status *Status) error
	Get(ctx context.Context, jobID string) (*Status, error)
}

// RedisStore keeps statuses as JSON strings with an expiration.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. A non-positive ttl means DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Connect creates a redis client for addr and checks the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func Key(jobID string) string {
	return keyPrefix + jobID
}

func (s *RedisStore) Set(ctx context.Context, jobID string, status *Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := s.client.Set(ctx, Key(jobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store status for job %s: %w", jobID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*Status, error) {
	data, err := s.client.Get(ctx, Key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("load status for job %s: %w", jobID, err)
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decode status for job %s: %w", jobID, err)
	}
	return &status, nil
}
