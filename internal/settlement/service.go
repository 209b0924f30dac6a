package settlement

import (
	"context"
	"strconv"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/audit"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gym"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/metrics"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/notify"
)

type Service interface {
	Create(ctx context.Context, gymID, actorID int) (*Settlement, error)
	GetUnsettledAmount(ctx context.Context, gymID int) (*UnsettledSummary, error)
	Process(ctx context.Context, id int, transactionID, notes string, actorID int) (*Settlement, error)
	List(ctx context.Context, gymID int, status Status) ([]Settlement, error)
}

type service struct {
	repo    Repository
	gymRepo gym.Repository
	audit   audit.Sink
	notify  notify.Sink
}

func NewService(repo Repository, gymRepo gym.Repository, auditSink audit.Sink, notifySink notify.Sink) Service {
	return &service{
		repo:    repo,
		gymRepo: gymRepo,
		audit:   auditSink,
		notify:  notifySink,
	}
}

func (s *service) Create(ctx context.Context, gymID, actorID int) (*Settlement, error) {
	g, err := s.gymRepo.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}

	settlement, err := s.repo.Create(ctx, gymID)
	if err != nil {
		return nil, err
	}

	metrics.RecordSettlement("created")
	logger.Infof("Settlement %d created for gym %d: %d cents", settlement.ID, gymID, settlement.AmountCents)

	event := audit.NewEvent("settlement.created", "settlement", strconv.Itoa(settlement.ID), actorID).
		WithGym(gymID).
		WithDetails(map[string]interface{}{
			"amount_cents": settlement.AmountCents,
		})
	s.audit.Enqueue(ctx, event)

	s.notify.NotifyUser(ctx, g.OwnerID, notify.KindSettlementCreated, map[string]interface{}{
		"settlement_id": settlement.ID,
		"gym_id":        gymID,
		"amount_cents":  settlement.AmountCents,
	})

	return settlement, nil
}

func (s *service) GetUnsettledAmount(ctx context.Context, gymID int) (*UnsettledSummary, error) {
	if _, err := s.gymRepo.GetByID(ctx, gymID); err != nil {
		return nil, err
	}
	return s.repo.GetUnsettledAmount(ctx, gymID)
}

func (s *service) Process(ctx context.Context, id int, transactionID, notes string, actorID int) (*Settlement, error) {
	settlement, err := s.repo.Process(ctx, id, transactionID, notes)
	if err != nil {
		return nil, err
	}

	metrics.RecordSettlement("processed")
	logger.Infof("Settlement %d processed, transaction %s", settlement.ID, transactionID)

	event := audit.NewEvent("settlement.processed", "settlement", strconv.Itoa(settlement.ID), actorID).
		WithGym(settlement.GymID).
		WithDetails(map[string]interface{}{
			"amount_cents":   settlement.AmountCents,
			"transaction_id": transactionID,
		})
	s.audit.Enqueue(ctx, event)

	if g, err := s.gymRepo.GetByID(ctx, settlement.GymID); err == nil {
		s.notify.NotifyUser(ctx, g.OwnerID, notify.KindSettlementProcessed, map[string]interface{}{
			"settlement_id":  settlement.ID,
			"amount_cents":   settlement.AmountCents,
			"transaction_id": transactionID,
		})
	} else {
		logger.Errorf("Failed to load gym %d for settlement notify: %v", settlement.GymID, err)
	}

	return settlement, nil
}

func (s *service) List(ctx context.Context, gymID int, status Status) ([]Settlement, error) {
	return s.repo.List(ctx, gymID, status)
}
