package payment

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/audit"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gateway"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/plan"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/subscription"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type MockPaymentRepo struct{ mock.Mock }
type MockSubRepo struct{ mock.Mock }
type MockGateway struct{ mock.Mock }

func (m *MockPaymentRepo) CreatePending(ctx context.Context, subscriptionID int, amountCents int64, currency, gatewayOrderID string) error {
	return m.Called(ctx, subscriptionID, amountCents, currency, gatewayOrderID).Error(0)
}

func (m *MockPaymentRepo) GetByOrderID(ctx context.Context, gatewayOrderID string) (*Detail, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Detail), args.Error(1)
}

func (m *MockPaymentRepo) MarkFailed(ctx context.Context, paymentID int, gatewayPaymentID, signature string) error {
	return m.Called(ctx, paymentID, gatewayPaymentID, signature).Error(0)
}

func (m *MockPaymentRepo) CompleteAndActivate(ctx context.Context, paymentID, subscriptionID int, gatewayPaymentID, signature string, startDate, endDate time.Time) (*subscription.Subscription, error) {
	args := m.Called(ctx, paymentID, subscriptionID, gatewayPaymentID, signature, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) CreatePending(ctx context.Context, userID, gymID, planID int, accessCode string, source subscription.Source) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID, gymID, planID, accessCode, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSubRepo) GetByID(ctx context.Context, id int) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) GetByAccessCode(ctx context.Context, accessCode string) (*subscription.Subscription, error) {
	args := m.Called(ctx, accessCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubRepo) ListByUser(ctx context.Context, userID int) ([]subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountCents int64, receiptID, currency string) (*gateway.Order, error) {
	args := m.Called(ctx, amountCents, receiptID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Order), args.Error(1)
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

type fakeAuditSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeAuditSink) Enqueue(ctx context.Context, e audit.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

type notification struct {
	userID  int
	kind    string
	payload map[string]interface{}
}

type fakeNotifySink struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifySink) NotifyUser(ctx context.Context, userID int, kind string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{userID: userID, kind: kind, payload: payload})
}

type fixtures struct {
	repo    *MockPaymentRepo
	subRepo *MockSubRepo
	gw      *MockGateway
	audit   *fakeAuditSink
	notify  *fakeNotifySink
	svc     Service
}

func newFixtures() *fixtures {
	f := &fixtures{
		repo:    new(MockPaymentRepo),
		subRepo: new(MockSubRepo),
		gw:      new(MockGateway),
		audit:   &fakeAuditSink{},
		notify:  &fakeNotifySink{},
	}
	f.svc = NewService(f.repo, f.subRepo, f.gw, f.audit, f.notify)
	return f
}

func pendingDetail() *Detail {
	return &Detail{
		Payment: Payment{
			ID:             10,
			SubscriptionID: 42,
			AmountCents:    100000,
			Currency:       "INR",
			GatewayOrderID: "order_abc",
			Status:         StatusPending,
		},
		SubscriptionStatus: subscription.StatusPending,
		UserID:             1,
		GymID:              3,
		DurationValue:      1,
		DurationUnit:       plan.UnitMonth,
	}
}

func activeSub(end time.Time) *subscription.Subscription {
	return &subscription.Subscription{
		ID:         42,
		UserID:     1,
		GymID:      3,
		PlanID:     5,
		Status:     subscription.StatusActive,
		Source:     subscription.SourceApp,
		AccessCode: "ABCDEF2345",
		StartDate:  time.Now(),
		EndDate:    end,
	}
}

func TestHandleCallbackSuccess(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	f.repo.On("GetByOrderID", ctx, "order_abc").Return(pendingDetail(), nil)
	f.gw.On("VerifySignature", "order_abc", "pay_xyz", "sig").Return(true)

	var capturedStart, capturedEnd time.Time
	f.repo.On("CompleteAndActivate", ctx, 10, 42, "pay_xyz", "sig",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			capturedStart = args.Get(5).(time.Time)
			capturedEnd = args.Get(6).(time.Time)
		}).
		Return(activeSub(time.Now().AddDate(0, 1, 0)), nil)

	sub, err := f.svc.HandleCallback(ctx, "order_abc", "pay_xyz", "sig")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)

	// the activation window must be exactly one calendar month, clamped
	wantEnd, err := plan.AddDuration(capturedStart, 1, plan.UnitMonth)
	require.NoError(t, err)
	assert.Equal(t, wantEnd, capturedEnd)

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "payment.completed", f.audit.events[0].Action)
	assert.Equal(t, "42", f.audit.events[0].EntityID)
	assert.Equal(t, 3, *f.audit.events[0].GymID)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, 1, f.notify.sent[0].userID)
	assert.Equal(t, "subscription_activated", f.notify.sent[0].kind)
}

func TestHandleCallbackIdempotent(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	completed := pendingDetail()
	completed.Status = StatusCompleted
	completed.SubscriptionStatus = subscription.StatusActive

	current := activeSub(time.Now().AddDate(0, 1, 0))

	f.repo.On("GetByOrderID", ctx, "order_abc").Return(completed, nil)
	f.subRepo.On("GetByID", ctx, 42).Return(current, nil)

	sub, err := f.svc.HandleCallback(ctx, "order_abc", "pay_xyz", "sig")
	require.NoError(t, err)
	assert.Equal(t, current, sub)

	// no verification, no writes, no duplicate side effects
	f.gw.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "CompleteAndActivate",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.audit.events)
	assert.Empty(t, f.notify.sent)
}

func TestHandleCallbackInvalidSignature(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	f.repo.On("GetByOrderID", ctx, "order_abc").Return(pendingDetail(), nil)
	f.gw.On("VerifySignature", "order_abc", "pay_xyz", "bad-sig").Return(false)
	f.repo.On("MarkFailed", ctx, 10, "pay_xyz", "bad-sig").Return(nil)

	_, err := f.svc.HandleCallback(ctx, "order_abc", "pay_xyz", "bad-sig")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	f.repo.AssertCalled(t, "MarkFailed", ctx, 10, "pay_xyz", "bad-sig")
	f.repo.AssertNotCalled(t, "CompleteAndActivate",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notify.sent)
}

func TestHandleCallbackRaceLoserIsNoop(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	current := activeSub(time.Now().AddDate(0, 1, 0))

	f.repo.On("GetByOrderID", ctx, "order_abc").Return(pendingDetail(), nil)
	f.gw.On("VerifySignature", "order_abc", "pay_xyz", "sig").Return(true)
	f.repo.On("CompleteAndActivate", ctx, 10, 42, "pay_xyz", "sig",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(nil, ErrAlreadyCompleted)
	f.subRepo.On("GetByID", ctx, 42).Return(current, nil)

	sub, err := f.svc.HandleCallback(ctx, "order_abc", "pay_xyz", "sig")
	require.NoError(t, err)
	assert.Equal(t, current, sub)
	assert.Empty(t, f.audit.events)
	assert.Empty(t, f.notify.sent)
}

func TestHandleCallbackPaymentNotFound(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	f.repo.On("GetByOrderID", ctx, "order_missing").Return(nil, ErrPaymentNotFound)

	_, err := f.svc.HandleCallback(ctx, "order_missing", "pay_xyz", "sig")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestHandleCallbackUnsupportedDurationUnit(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	detail := pendingDetail()
	detail.DurationUnit = plan.DurationUnit("fortnight")

	f.repo.On("GetByOrderID", ctx, "order_abc").Return(detail, nil)
	f.gw.On("VerifySignature", "order_abc", "pay_xyz", "sig").Return(true)

	_, err := f.svc.HandleCallback(ctx, "order_abc", "pay_xyz", "sig")
	assert.ErrorIs(t, err, plan.ErrUnsupportedDurationUnit)

	f.repo.AssertNotCalled(t, "CompleteAndActivate",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
