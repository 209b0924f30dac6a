package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/metrics"
)

const queueKey = "notifications"

const (
	KindSubscriptionActivated = "subscription_activated"
	KindSettlementCreated     = "settlement_created"
	KindSettlementProcessed   = "settlement_processed"
)

// Sink is the fire-and-forget notification contract. Delivery (push/SMS) is
// handled by a separate consumer; this side only queues.
type Sink interface {
	NotifyUser(ctx context.Context, userID int, kind string, payload map[string]interface{})
}

type Job struct {
	UserID  int                    `json:"user_id"`
	Kind    string                 `json:"kind"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Created time.Time              `json:"created"`
}

type Service struct {
	redis *redis.Client
}

func New(redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
	}
}

// NotifyUser queues a notification. Failures are logged and swallowed; a
// missed notification must never roll back the transition that produced it.
func (s *Service) NotifyUser(ctx context.Context, userID int, kind string, payload map[string]interface{}) {
	job := Job{
		UserID:  userID,
		Kind:    kind,
		Payload: payload,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification for user %d: %v", userID, err)
		return
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue %s notification for user %d: %v", kind, userID, err)
		return
	}

	logger.Debugf("Notification queued: %s for user %d", kind, userID)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotifyQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
