package gym

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupGymMock(t *testing.T) (*Repo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestCreate(t *testing.T) {
	repo, mock, close := setupGymMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO gyms (name, location, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, location, owner_id, created_at
	`)).
		WithArgs("Iron Temple", "Mumbai", 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "location", "owner_id", "created_at"}).
			AddRow(1, "Iron Temple", "Mumbai", 7, now))

	g, err := repo.Create(context.Background(), "Iron Temple", "Mumbai", 7)
	require.NoError(t, err)
	require.Equal(t, 1, g.ID)
	require.Equal(t, 7, g.OwnerID)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, close := setupGymMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, location, owner_id, created_at`)).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	require.ErrorIs(t, err, ErrGymNotFound)
}

func TestOwnsGym(t *testing.T) {
	repo, mock, close := setupGymMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS(SELECT 1 FROM gyms WHERE id = $1 AND owner_id = $2)
	`)).
		WithArgs(3, 7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	owns, err := repo.OwnsGym(context.Background(), 7, 3)
	require.NoError(t, err)
	require.True(t, owns)
}
