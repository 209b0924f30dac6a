package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/metrics"
)

const (
	queueKey  = "audit:events"
	failedKey = "audit:failed"

	maxAttempts     = 3
	failedRetention = 24 * time.Hour
)

// Sink is what producers see: fire-and-forget, never fails the caller.
type Sink interface {
	Enqueue(ctx context.Context, e Event)
}

type Store interface {
	Insert(ctx context.Context, e Event) error
}

// Service queues audit events on a redis list and drains them with a bounded
// worker pool. Delivery is at least once; the store dedupes on event id.
type Service struct {
	redis       *redis.Client
	store       Store
	sem         chan struct{}
	limiter     *rate.Limiter
	backoffBase time.Duration
}

func NewService(redisAddr string, store Store, workers int, eventsPerSec float64) *Service {
	if workers <= 0 {
		workers = 5
	}
	if eventsPerSec <= 0 {
		eventsPerSec = 100
	}
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		store:       store,
		sem:         make(chan struct{}, workers),
		limiter:     rate.NewLimiter(rate.Limit(eventsPerSec), workers),
		backoffBase: time.Second,
	}
}

// Enqueue places the event on the queue and returns immediately. A queue
// failure is logged and swallowed; audit logging must never abort the
// business operation that produced the event.
func (s *Service) Enqueue(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Errorf("Failed to marshal audit event %s: %v", e.ID, err)
		return
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue audit event %s (%s %s/%s): %v", e.ID, e.Action, e.Entity, e.EntityID, err)
		return
	}

	metrics.RecordAuditEvent("enqueued")
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Audit pipeline started")

	for {
		select {
		case <-ctx.Done():
			// wait for in-flight handlers before returning
			for i := 0; i < cap(s.sem); i++ {
				s.sem <- struct{}{}
			}
			logger.Info("Audit pipeline stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var e Event
	if err := json.Unmarshal([]byte(result[1]), &e); err != nil {
		logger.Errorf("Bad audit event data: %v", err)
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		// shutting down; push the event back so nothing is lost
		s.requeue(e)
		return
	}

	s.sem <- struct{}{}
	go func() {
		defer func() { <-s.sem }()
		s.handle(ctx, e)
	}()
}

func (s *Service) handle(ctx context.Context, e Event) {
	e.Tries++

	if err := s.store.Insert(ctx, e); err != nil {
		logger.Errorf("Failed to persist audit event %s (attempt %d): %v", e.ID, e.Tries, err)

		if e.Tries < maxAttempts {
			time.Sleep(s.backoffBase << (e.Tries - 1))
			s.requeue(e)
			metrics.RecordAuditEvent("retried")
		} else {
			s.saveFailed(e, err)
			metrics.RecordAuditEvent("dead")
		}
		return
	}

	metrics.RecordAuditEvent("processed")
}

func (s *Service) requeue(e Event) {
	data, _ := json.Marshal(e)
	if err := s.redis.LPush(context.Background(), queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to requeue audit event %s: %v", e.ID, err)
	}
}

// saveFailed parks the event on a dead list retained for a day so an operator
// can inspect what was dropped.
func (s *Service) saveFailed(e Event, cause error) {
	failed := map[string]interface{}{
		"event": e,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)

	ctx := context.Background()
	if err := s.redis.LPush(ctx, failedKey, data).Err(); err != nil {
		logger.Errorf("Failed to park audit event %s on failed list: %v", e.ID, err)
		return
	}
	s.redis.Expire(ctx, failedKey, failedRetention)

	logger.Errorf("Audit event %s moved to failed list after %d attempts", e.ID, e.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.AuditQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
