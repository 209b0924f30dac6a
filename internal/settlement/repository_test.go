package settlement

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupSettlementMock(t *testing.T) (*Repo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func paymentColumns() []string {
	return []string{
		"id", "subscription_id", "amount_cents", "currency", "gateway_order_id",
		"gateway_payment_id", "gateway_signature", "status", "settlement_id",
		"created_at", "updated_at",
	}
}

func settlementColumns() []string {
	return []string{
		"id", "gym_id", "amount_cents", "status", "transaction_id", "notes",
		"created_at", "updated_at",
	}
}

func unsettledRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(paymentColumns()).
		AddRow(21, 42, int64(100000), "INR", "order_a", "pay_a", "sig_a", "completed", nil, now, now).
		AddRow(22, 43, int64(150000), "INR", "order_b", "pay_b", "sig_b", "completed", nil, now, now)
}

func TestCreateClaimsAllUnsettled(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT p.id").
		WithArgs(3).
		WillReturnRows(unsettledRows(now))
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO settlements (gym_id, amount_cents, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, gym_id, amount_cents, status, transaction_id, notes, created_at, updated_at
	`)).
		WithArgs(3, int64(250000)).
		WillReturnRows(sqlmock.NewRows(settlementColumns()).
			AddRow(11, 3, int64(250000), "pending", nil, nil, now, now))
	mock.ExpectExec("UPDATE payments").
		WithArgs(11, 21, 22).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	s, err := repo.Create(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 11, s.ID)
	require.Equal(t, int64(250000), s.AmountCents)
	require.Equal(t, StatusPending, s.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNoUnsettledPayments(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT p.id").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(paymentColumns()))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 3)
	require.ErrorIs(t, err, ErrNoUnsettledPayments)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsPartialClaim(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT p.id").
		WithArgs(3).
		WillReturnRows(unsettledRows(now))
	mock.ExpectQuery("INSERT INTO settlements").
		WithArgs(3, int64(250000)).
		WillReturnRows(sqlmock.NewRows(settlementColumns()).
			AddRow(11, 3, int64(250000), "pending", nil, nil, now, now))
	mock.ExpectExec("UPDATE payments").
		WithArgs(11, 21, 22).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 3)
	require.ErrorIs(t, err, ErrConcurrentSettlement)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnsettledAmount(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	mock.ExpectQuery("SELECT p.id").
		WithArgs(3).
		WillReturnRows(unsettledRows(time.Now()))

	summary, err := repo.GetUnsettledAmount(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 3, summary.GymID)
	require.Equal(t, 2, summary.Count)
	require.Equal(t, int64(250000), summary.AmountCents)
	require.Len(t, summary.Payments, 2)
}

func TestGetUnsettledAmountEmpty(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	mock.ExpectQuery("SELECT p.id").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(paymentColumns()))

	summary, err := repo.GetUnsettledAmount(context.Background(), 3)
	require.NoError(t, err)
	require.Zero(t, summary.Count)
	require.Zero(t, summary.AmountCents)
}

func TestProcess(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		UPDATE settlements
		SET status = 'processed', transaction_id = $2, notes = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, gym_id, amount_cents, status, transaction_id, notes, created_at, updated_at
	`)).
		WithArgs(11, "UTR123456", "august payout").
		WillReturnRows(sqlmock.NewRows(settlementColumns()).
			AddRow(11, 3, int64(250000), "processed", "UTR123456", "august payout", now, now))

	s, err := repo.Process(context.Background(), 11, "UTR123456", "august payout")
	require.NoError(t, err)
	require.Equal(t, StatusProcessed, s.Status)
	require.Equal(t, "UTR123456", *s.TransactionID)
}

func TestProcessAlreadyProcessed(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery("UPDATE settlements").
		WithArgs(11, "UTR123456", "").
		WillReturnRows(sqlmock.NewRows(settlementColumns()))
	// the follow-up read finds the row, so the settlement exists but is done
	mock.ExpectQuery("SELECT id, gym_id").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(settlementColumns()).
			AddRow(11, 3, int64(250000), "processed", "UTR000", nil, now, now))

	_, err := repo.Process(context.Background(), 11, "UTR123456", "")
	require.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestProcessNotFound(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	mock.ExpectQuery("UPDATE settlements").
		WithArgs(99, "UTR123456", "").
		WillReturnRows(sqlmock.NewRows(settlementColumns()))
	mock.ExpectQuery("SELECT id, gym_id").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(settlementColumns()))

	_, err := repo.Process(context.Background(), 99, "UTR123456", "")
	require.ErrorIs(t, err, ErrSettlementNotFound)
}

func TestList(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery("SELECT id, gym_id").
		WithArgs(3, "pending").
		WillReturnRows(sqlmock.NewRows(settlementColumns()).
			AddRow(11, 3, int64(250000), "pending", nil, nil, now, now))

	settlements, err := repo.List(context.Background(), 3, StatusPending)
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	require.Equal(t, 3, settlements[0].GymID)
}

func TestListUnfiltered(t *testing.T) {
	repo, mock, close := setupSettlementMock(t)
	defer close()

	mock.ExpectQuery("SELECT id, gym_id").
		WithArgs(0, "").
		WillReturnRows(sqlmock.NewRows(settlementColumns()))

	settlements, err := repo.List(context.Background(), 0, "")
	require.NoError(t, err)
	require.Empty(t, settlements)
}
