package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/domain/transactions"
)

var txnColumns = []string{
	"id", "amount_cents", "currency", "status", "kind",
	"gateway", "gateway_txn_id", "details",
	"user_id", "pet_id", "coupon_code", "created_at",
}

func TestTransactionsRepo_ListQuery(t *testing.T) {
	cases := []struct {
		name   string
		filter transactions.ListFilter
		sql    string
		args   []driver.Value
	}{
		{
			name:   "no filters",
			filter: transactions.ListFilter{},
			sql:    `FROM transactions WHERE 1=1 ORDER BY created_at DESC, id ASC LIMIT \$1$`,
			args:   []driver.Value{transactions.DefaultLimit},
		},
		{
			name:   "status only",
			filter: transactions.ListFilter{Status: transactions.StatusFailure, Limit: 10},
			sql:    `FROM transactions WHERE 1=1 AND status = \$1 ORDER BY created_at DESC, id ASC LIMIT \$2$`,
			args:   []driver.Value{"failure", 10},
		},
		{
			name:   "user and status",
			filter: transactions.ListFilter{UserID: "u1", Status: transactions.StatusSuccess, Limit: 5},
			sql:    `FROM transactions WHERE 1=1 AND user_id = \$1 AND status = \$2 ORDER BY created_at DESC, id ASC LIMIT \$3$`,
			args:   []driver.Value{"u1", "success", 5},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(tc.sql).
				WithArgs(tc.args...).
				WillReturnRows(sqlmock.NewRows(txnColumns))

			got, err := NewTransactionsRepo(db).List(context.Background(), tc.filter)
			require.NoError(t, err)
			assert.Empty(t, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactionsRepo_CreateAndScan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := NewTransactionsRepo(db)

	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs("t1", int64(0), "USD", "success", "sale", "none", nil, []byte(`{"coupon":"FREE100"}`), "u1", nil, "FREE100", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), transactions.Transaction{
		ID:         "t1",
		Currency:   "USD",
		Status:     transactions.StatusSuccess,
		Kind:       transactions.KindSale,
		Gateway:    transactions.GatewayNone,
		Details:    map[string]any{"coupon": "FREE100"},
		UserID:     "u1",
		CouponCode: "FREE100",
		CreatedAt:  now,
	}))

	mock.ExpectQuery(`FROM transactions WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(txnColumns).
			AddRow("t1", int64(0), "USD", "success", "sale", "none", nil, []byte(`{"coupon":"FREE100"}`), "u1", nil, "FREE100", now))

	got, err := repo.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, transactions.StatusSuccess, got.Status)
	assert.Equal(t, transactions.KindSale, got.Kind)
	assert.Empty(t, got.GatewayTxnID)
	assert.Empty(t, got.PetID)
	assert.Equal(t, "FREE100", got.CouponCode)
	assert.Equal(t, map[string]any{"coupon": "FREE100"}, got.Details)

	mock.ExpectQuery(`FROM transactions WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(txnColumns))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, transactions.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
