package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/domain/users"
	"pet-adoption-api/internal/ports/auth"
)

func TestUsersRepo_GetByLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\) OR lower\(username\) = lower\(\$1\)`).
		WithArgs("Ana@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "rescue_id", "profile", "created_at", "updated_at",
		}).AddRow("u-1", "ana", "ana@example.com", "hash", "rescue", "r-1", []byte(`{"city":"Rosario"}`), created, created))

	u, err := NewUsersRepo(db).GetByLogin(context.Background(), " Ana@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleRescue, u.Role)
	assert.Equal(t, "r-1", u.RescueID)
	assert.Equal(t, "Rosario", u.Profile["city"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_CreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err = NewUsersRepo(db).Create(context.Background(), users.User{ID: "u-1", Username: "ana", Email: "ana@example.com"})
	assert.ErrorIs(t, err, users.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_MarkResetUsedOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE password_resets SET used = TRUE WHERE token_hash = \$1 AND used = FALSE`).
		WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE password_resets SET used = TRUE`).
		WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUsersRepo(db)
	require.NoError(t, repo.MarkResetUsed(context.Background(), "h"))
	assert.ErrorIs(t, repo.MarkResetUsed(context.Background(), "h"), users.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
