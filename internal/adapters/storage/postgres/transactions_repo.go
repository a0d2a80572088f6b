package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-api/internal/domain/transactions"
)

type TransactionsRepo struct {
	db *sql.DB
}

func NewTransactionsRepo(db *sql.DB) *TransactionsRepo {
	return &TransactionsRepo{db: db}
}

const transactionColumns = `
	id, amount_cents, currency, status, kind,
	gateway, gateway_txn_id, details,
	user_id, pet_id, coupon_code, created_at`

func (r *TransactionsRepo) Create(ctx context.Context, t transactions.Transaction) error {
	details, err := marshalMap(t.Details)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		t.ID,
		t.AmountCents,
		t.Currency,
		string(t.Status),
		string(t.Kind),
		t.Gateway,
		nullString(t.GatewayTxnID),
		details,
		nullString(t.UserID),
		nullString(t.PetID),
		nullString(t.CouponCode),
		t.CreatedAt,
	)
	return err
}

func (r *TransactionsRepo) GetByID(ctx context.Context, id string) (transactions.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return transactions.Transaction{}, transactions.ErrNotFound
	}
	return t, err
}

func (r *TransactionsRepo) List(ctx context.Context, f transactions.ListFilter) ([]transactions.Transaction, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`)

	args := []any{}
	argN := 1
	if f.UserID != "" {
		sb.WriteString(fmt.Sprintf(" AND user_id = $%d", argN))
		args = append(args, f.UserID)
		argN++
	}
	if f.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(f.Status))
		argN++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = transactions.DefaultLimit
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]transactions.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (transactions.Transaction, error) {
	var (
		t                         transactions.Transaction
		status, kind              string
		gatewayTxn, userID, petID sql.NullString
		coupon                    sql.NullString
		details                   []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.AmountCents,
		&t.Currency,
		&status,
		&kind,
		&t.Gateway,
		&gatewayTxn,
		&details,
		&userID,
		&petID,
		&coupon,
		&t.CreatedAt,
	); err != nil {
		return transactions.Transaction{}, err
	}
	t.Status = transactions.Status(status)
	t.Kind = transactions.Kind(kind)
	t.GatewayTxnID = gatewayTxn.String
	t.UserID = userID.String
	t.PetID = petID.String
	t.CouponCode = coupon.String

	m, err := unmarshalMap(details)
	if err != nil {
		return transactions.Transaction{}, fmt.Errorf("decode details of transaction %s: %w", t.ID, err)
	}
	t.Details = m
	return t, nil
}
