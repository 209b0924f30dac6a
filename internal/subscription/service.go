package subscription

import (
	"context"
	"crypto/rand"
	"errors"
	"strconv"

	"github.com/lib/pq"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gateway"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gym"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/metrics"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/plan"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/user"
)

// accessCodeAlphabet omits easily-confused characters (0/O, 1/I).
const (
	accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	accessCodeLength   = 10
	accessCodeRetries  = 5
)

var ErrAccessCodeCollision = errors.New("could not generate unique access code")

// PaymentCreator persists the pending payment row tied to a gateway order.
// Narrow interface instead of the payment package to keep the dependency
// one-directional.
type PaymentCreator interface {
	CreatePending(ctx context.Context, subscriptionID int, amountCents int64, currency, gatewayOrderID string) error
}

type CreateResult struct {
	Subscription *Subscription   `json:"subscription"`
	Order        *gateway.Order  `json:"order"`
	Checkout     CheckoutPayload `json:"checkout"`
}

type Service interface {
	Create(ctx context.Context, userID, planID, gymID int) (*CreateResult, error)
}

type service struct {
	repo     Repository
	planRepo plan.Repository
	gymRepo  gym.Repository
	userRepo user.Repository
	payments PaymentCreator
	gw       gateway.Gateway
}

func NewService(
	repo Repository,
	planRepo plan.Repository,
	gymRepo gym.Repository,
	userRepo user.Repository,
	payments PaymentCreator,
	gw gateway.Gateway,
) Service {
	return &service{
		repo:     repo,
		planRepo: planRepo,
		gymRepo:  gymRepo,
		userRepo: userRepo,
		payments: payments,
		gw:       gw,
	}
}

// Create inserts a pending subscription and its pending payment, with a
// gateway order in between. If the gateway call fails the subscription is
// deleted again so no orphaned pending row survives. No audit or notification
// fires here; those trigger on confirmed payment only.
func (s *service) Create(ctx context.Context, userID, planID, gymID int) (*CreateResult, error) {
	p, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.GymID != gymID {
		// plans are per-gym; a mismatched pair is treated as an unknown plan
		return nil, plan.ErrPlanNotFound
	}

	g, err := s.gymRepo.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sub, err := s.createWithUniqueCode(ctx, userID, gymID, planID)
	if err != nil {
		return nil, err
	}

	order, err := s.gw.CreateOrder(ctx, p.PriceCents, strconv.Itoa(sub.ID), p.Currency)
	if err != nil {
		s.compensate(ctx, sub.ID)
		return nil, err
	}

	if err := s.payments.CreatePending(ctx, sub.ID, p.PriceCents, p.Currency, order.ID); err != nil {
		s.compensate(ctx, sub.ID)
		return nil, err
	}

	metrics.RecordSubscriptionCreated()
	logger.Infof("Subscription %d created pending payment, order %s", sub.ID, order.ID)

	return &CreateResult{
		Subscription: sub,
		Order:        order,
		Checkout: CheckoutPayload{
			Name:     u.Name,
			Contact:  u.Phone,
			PlanName: p.Name,
			GymName:  g.Name,
			Notes: map[string]string{
				"subscription_id": strconv.Itoa(sub.ID),
				"gym_id":          strconv.Itoa(gymID),
			},
		},
	}, nil
}

func (s *service) createWithUniqueCode(ctx context.Context, userID, gymID, planID int) (*Subscription, error) {
	for attempt := 0; attempt < accessCodeRetries; attempt++ {
		code, err := generateAccessCode()
		if err != nil {
			return nil, err
		}

		sub, err := s.repo.CreatePending(ctx, userID, gymID, planID, code, SourceApp)
		if err == nil {
			return sub, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		logger.Debugf("Access code collision on attempt %d, retrying", attempt+1)
	}

	return nil, ErrAccessCodeCollision
}

func (s *service) compensate(ctx context.Context, subID int) {
	if err := s.repo.Delete(ctx, subID); err != nil {
		logger.Errorf("Compensating delete of subscription %d failed: %v", subID, err)
	}
}

func generateAccessCode() (string, error) {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = accessCodeAlphabet[int(b)%len(accessCodeAlphabet)]
	}

	return string(buf), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
