package payment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/audit"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gateway"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/metrics"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/notify"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/plan"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/subscription"
)

var ErrInvalidSignature = errors.New("invalid gateway signature")

type Service interface {
	HandleCallback(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*subscription.Subscription, error)
}

type service struct {
	repo    Repository
	subRepo subscription.Repository
	gw      gateway.Gateway
	audit   audit.Sink
	notify  notify.Sink
}

func NewService(
	repo Repository,
	subRepo subscription.Repository,
	gw gateway.Gateway,
	auditSink audit.Sink,
	notifySink notify.Sink,
) Service {
	return &service{
		repo:    repo,
		subRepo: subRepo,
		gw:      gw,
		audit:   auditSink,
		notify:  notifySink,
	}
}

// HandleCallback reconciles one gateway callback. The gateway delivers at
// least once, so any number of calls for the same order must be safe: an
// already-completed payment short-circuits to the current subscription, and
// the completion itself is guarded again inside the transaction for the case
// where two callbacks race past the first check.
func (s *service) HandleCallback(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*subscription.Subscription, error) {
	detail, err := s.repo.GetByOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	if detail.Status == StatusCompleted {
		metrics.RecordPayment("duplicate")
		return s.subRepo.GetByID(ctx, detail.SubscriptionID)
	}

	if !s.gw.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		if err := s.repo.MarkFailed(ctx, detail.Payment.ID, gatewayPaymentID, signature); err != nil {
			logger.Errorf("Failed to mark payment %d failed: %v", detail.Payment.ID, err)
		}
		metrics.RecordPayment("failed")
		logger.Errorf("Signature verification failed for order %s", gatewayOrderID)
		return nil, ErrInvalidSignature
	}

	startDate := time.Now()
	endDate, err := plan.AddDuration(startDate, detail.DurationValue, detail.DurationUnit)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.CompleteAndActivate(
		ctx,
		detail.Payment.ID,
		detail.SubscriptionID,
		gatewayPaymentID,
		signature,
		startDate,
		endDate,
	)
	if errors.Is(err, ErrAlreadyCompleted) {
		// a concurrent callback won the transition; theirs counts, ours is a no-op
		metrics.RecordPayment("duplicate")
		return s.subRepo.GetByID(ctx, detail.SubscriptionID)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordPayment("completed")
	logger.Infof("Payment %d completed, subscription %d active until %s",
		detail.Payment.ID, sub.ID, sub.EndDate.Format("2006-01-02"))

	s.emitSideEffects(ctx, detail, sub, gatewayPaymentID)

	return sub, nil
}

// emitSideEffects runs after the financial transition committed; nothing here
// may fail the caller.
func (s *service) emitSideEffects(ctx context.Context, detail *Detail, sub *subscription.Subscription, gatewayPaymentID string) {
	event := audit.NewEvent("payment.completed", "subscription", strconv.Itoa(sub.ID), detail.UserID).
		WithGym(detail.GymID).
		WithDetails(map[string]interface{}{
			"payment_id":         detail.Payment.ID,
			"gateway_order_id":   detail.GatewayOrderID,
			"gateway_payment_id": gatewayPaymentID,
			"amount_cents":       detail.AmountCents,
			"end_date":           sub.EndDate,
		})
	s.audit.Enqueue(ctx, event)

	s.notify.NotifyUser(ctx, detail.UserID, notify.KindSubscriptionActivated, map[string]interface{}{
		"subscription_id": sub.ID,
		"access_code":     sub.AccessCode,
		"end_date":        sub.EndDate,
	})
}
