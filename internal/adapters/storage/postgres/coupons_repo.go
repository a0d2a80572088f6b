package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pet-adoption-api/internal/domain/coupons"
)

type CouponsRepo struct {
	db *sql.DB
}

func NewCouponsRepo(db *sql.DB) *CouponsRepo {
	return &CouponsRepo{db: db}
}

const couponColumns = `
	code, discount_type, value, applies_to,
	max_uses, times_used, expires_at, active,
	created_at, updated_at`

func (r *CouponsRepo) Create(ctx context.Context, c coupons.Coupon) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupon_codes (`+couponColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		c.Code,
		string(c.DiscountType),
		c.Value,
		string(c.AppliesTo),
		nullInt(c.MaxUses),
		c.TimesUsed,
		nullTime(c.ExpiresAt),
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return coupons.ErrDuplicate
	}
	return err
}

func (r *CouponsRepo) GetByCode(ctx context.Context, code string) (coupons.Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupon_codes WHERE code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return coupons.Coupon{}, coupons.ErrNotFound
	}
	return c, err
}

// Update no toca times_used: eso solo lo mueve IncrementUsage.
func (r *CouponsRepo) Update(ctx context.Context, c coupons.Coupon) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupon_codes
		SET
			discount_type = $2,
			value = $3,
			applies_to = $4,
			max_uses = $5,
			expires_at = $6,
			active = $7,
			updated_at = $8
		WHERE code = $1
	`,
		c.Code,
		string(c.DiscountType),
		c.Value,
		string(c.AppliesTo),
		nullInt(c.MaxUses),
		nullTime(c.ExpiresAt),
		c.Active,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return coupons.ErrNotFound
	}
	return nil
}

func (r *CouponsRepo) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupon_codes WHERE code = $1`, code)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return coupons.ErrNotFound
	}
	return nil
}

func (r *CouponsRepo) List(ctx context.Context) ([]coupons.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupon_codes ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]coupons.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// IncrementUsage hace el chequeo del tope y la suma en un solo UPDATE.
func (r *CouponsRepo) IncrementUsage(ctx context.Context, code string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupon_codes
		SET times_used = times_used + 1, updated_at = $2
		WHERE code = $1 AND (max_uses IS NULL OR times_used < max_uses)
	`, code, now)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM coupon_codes WHERE code = $1)`, code).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return coupons.ErrNotFound
	}
	return coupons.ErrExhausted
}

func scanCoupon(row rowScanner) (coupons.Coupon, error) {
	var (
		c         coupons.Coupon
		dt, to    string
		maxUses   sql.NullInt64
		expiresAt sql.NullTime
	)
	if err := row.Scan(
		&c.Code,
		&dt,
		&c.Value,
		&to,
		&maxUses,
		&c.TimesUsed,
		&expiresAt,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return coupons.Coupon{}, err
	}
	c.DiscountType = coupons.DiscountType(dt)
	c.AppliesTo = coupons.AppliesTo(to)
	if maxUses.Valid {
		v := int(maxUses.Int64)
		c.MaxUses = &v
	}
	c.ExpiresAt = timePtr(expiresAt)
	return c, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
