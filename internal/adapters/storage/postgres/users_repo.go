package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-api/internal/domain/users"
	"pet-adoption-api/internal/ports/auth"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `id, username, email, password_hash, role, rescue_id, profile, created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	profile, err := marshalMap(u.Profile)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.RescueID),
		profile,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return users.ErrDuplicate
	}
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByLogin(ctx context.Context, login string) (users.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.getOne(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE lower(email) = lower($1) OR lower(username) = lower($1)
		LIMIT 1
	`, login)
}

func (r *UsersRepo) getOne(ctx context.Context, query string, args ...any) (users.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	profile, err := marshalMap(u.Profile)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			username = $2,
			email = $3,
			password_hash = $4,
			role = $5,
			rescue_id = $6,
			profile = $7,
			updated_at = $8
		WHERE id = $1
	`,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.RescueID),
		profile,
		u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return users.ErrDuplicate
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) List(ctx context.Context, f users.ListFilter) ([]users.User, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + userColumns + ` FROM users WHERE 1=1`)

	args := []any{}
	argN := 1

	if f.Role != "" {
		sb.WriteString(fmt.Sprintf(" AND role = $%d", argN))
		args = append(args, string(f.Role))
		argN++
	}
	if f.RescueID != "" {
		sb.WriteString(fmt.Sprintf(" AND rescue_id = $%d", argN))
		args = append(args, f.RescueID)
		argN++
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (username ILIKE $%d OR email ILIKE $%d)", argN, argN))
		args = append(args, "%"+escapeLike(q)+"%")
		argN++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", argN, argN+1))
	args = append(args, limit, max(f.Offset, 0))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) SaveReset(ctx context.Context, pr users.PasswordReset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at, used, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, pr.TokenHash, pr.UserID, pr.ExpiresAt, pr.Used, pr.CreatedAt)
	return err
}

func (r *UsersRepo) GetReset(ctx context.Context, tokenHash string) (users.PasswordReset, error) {
	var pr users.PasswordReset
	err := r.db.QueryRowContext(ctx, `
		SELECT token_hash, user_id, expires_at, used, created_at
		FROM password_resets
		WHERE token_hash = $1
	`, tokenHash).Scan(&pr.TokenHash, &pr.UserID, &pr.ExpiresAt, &pr.Used, &pr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return users.PasswordReset{}, users.ErrNotFound
	}
	return pr, err
}

// MarkResetUsed solo afecta tokens todavía sin usar: dos confirmaciones
// simultáneas no pueden consumir el mismo token.
func (r *UsersRepo) MarkResetUsed(ctx context.Context, tokenHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE password_resets SET used = TRUE
		WHERE token_hash = $1 AND used = FALSE
	`, tokenHash)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (users.User, error) {
	var (
		u        users.User
		role     string
		rescueID sql.NullString
		profile  []byte
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&rescueID,
		&profile,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return users.User{}, err
	}
	u.Role = auth.Role(role)
	u.RescueID = rescueID.String

	m, err := unmarshalMap(profile)
	if err != nil {
		return users.User{}, fmt.Errorf("decode profile of user %s: %w", u.ID, err)
	}
	u.Profile = m
	return u, nil
}

func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	return json.Marshal(m)
}

func unmarshalMap(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
