package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-api/internal/domain/rescues"
)

type RescuesRepo struct {
	db *sql.DB
}

func NewRescuesRepo(db *sql.DB) *RescuesRepo {
	return &RescuesRepo{db: db}
}

const rescueColumns = `
	id, name, location, contact_email, description,
	website, logo_url, registration_number,
	created_at, updated_at`

func (r *RescuesRepo) Create(ctx context.Context, x rescues.Rescue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rescues (`+rescueColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		x.ID,
		x.Name,
		x.Location,
		x.ContactEmail,
		x.Description,
		nullString(x.Website),
		nullString(x.LogoURL),
		nullString(x.RegistrationNumber),
		x.CreatedAt,
		x.UpdatedAt,
	)
	return err
}

func (r *RescuesRepo) GetByID(ctx context.Context, id string) (rescues.Rescue, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return rescues.Rescue{}, rescues.ErrNotFound
	}
	x, err := scanRescue(r.db.QueryRowContext(ctx, `SELECT `+rescueColumns+` FROM rescues WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return rescues.Rescue{}, rescues.ErrNotFound
	}
	return x, err
}

func (r *RescuesRepo) Update(ctx context.Context, x rescues.Rescue) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rescues
		SET
			name = $2,
			location = $3,
			contact_email = $4,
			description = $5,
			website = $6,
			logo_url = $7,
			registration_number = $8,
			updated_at = $9
		WHERE id = $1
	`,
		x.ID,
		x.Name,
		x.Location,
		x.ContactEmail,
		x.Description,
		nullString(x.Website),
		nullString(x.LogoURL),
		nullString(x.RegistrationNumber),
		x.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rescues.ErrNotFound
	}
	return nil
}

func (r *RescuesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rescues WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rescues.ErrNotFound
	}
	return nil
}

func (r *RescuesRepo) List(ctx context.Context) ([]rescues.Rescue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+rescueColumns+` FROM rescues ORDER BY lower(name) ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rescues.Rescue, 0)
	for rows.Next() {
		x, err := scanRescue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func scanRescue(row rowScanner) (rescues.Rescue, error) {
	var (
		x                      rescues.Rescue
		website, logo, regNumb sql.NullString
	)
	if err := row.Scan(
		&x.ID,
		&x.Name,
		&x.Location,
		&x.ContactEmail,
		&x.Description,
		&website,
		&logo,
		&regNumb,
		&x.CreatedAt,
		&x.UpdatedAt,
	); err != nil {
		return rescues.Rescue{}, err
	}
	x.Website = website.String
	x.LogoURL = logo.String
	x.RegistrationNumber = regNumb.String
	return x, nil
}

type RescueRequestsRepo struct {
	db *sql.DB
}

func NewRescueRequestsRepo(db *sql.DB) *RescueRequestsRepo {
	return &RescueRequestsRepo{db: db}
}

const rescueRequestColumns = `
	id, user_id,
	name, location, contact_email, description,
	website, logo_url, registration_number,
	status, decided_by, decision_note, rescue_id, decided_at,
	created_at, updated_at`

func (r *RescueRequestsRepo) Create(ctx context.Context, x rescues.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rescue_requests (`+rescueRequestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		x.ID,
		x.UserID,
		x.Details.Name,
		x.Details.Location,
		x.Details.ContactEmail,
		x.Details.Description,
		nullString(x.Details.Website),
		nullString(x.Details.LogoURL),
		nullString(x.Details.RegistrationNumber),
		string(x.Status),
		nullString(x.DecidedBy),
		nullString(x.DecisionNote),
		nullString(x.RescueID),
		nullTime(x.DecidedAt),
		x.CreatedAt,
		x.UpdatedAt,
	)
	return err
}

func (r *RescueRequestsRepo) GetByID(ctx context.Context, id string) (rescues.Request, error) {
	x, err := scanRescueRequest(r.db.QueryRowContext(ctx,
		`SELECT `+rescueRequestColumns+` FROM rescue_requests WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return rescues.Request{}, rescues.ErrRequestNotFound
	}
	return x, err
}

func (r *RescueRequestsRepo) Update(ctx context.Context, x rescues.Request) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rescue_requests
		SET
			name = $2,
			location = $3,
			contact_email = $4,
			description = $5,
			website = $6,
			logo_url = $7,
			registration_number = $8,
			status = $9,
			decided_by = $10,
			decision_note = $11,
			rescue_id = $12,
			decided_at = $13,
			updated_at = $14
		WHERE id = $1
	`,
		x.ID,
		x.Details.Name,
		x.Details.Location,
		x.Details.ContactEmail,
		x.Details.Description,
		nullString(x.Details.Website),
		nullString(x.Details.LogoURL),
		nullString(x.Details.RegistrationNumber),
		string(x.Status),
		nullString(x.DecidedBy),
		nullString(x.DecisionNote),
		nullString(x.RescueID),
		nullTime(x.DecidedAt),
		x.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rescues.ErrRequestNotFound
	}
	return nil
}

func (r *RescueRequestsRepo) List(ctx context.Context, userID string, status rescues.RequestStatus) ([]rescues.Request, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + rescueRequestColumns + ` FROM rescue_requests WHERE 1=1`)

	args := []any{}
	argN := 1
	if userID != "" {
		sb.WriteString(fmt.Sprintf(" AND user_id = $%d", argN))
		args = append(args, userID)
		argN++
	}
	if status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(status))
	}
	sb.WriteString(" ORDER BY created_at DESC, updated_at DESC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rescues.Request, 0)
	for rows.Next() {
		x, err := scanRescueRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func scanRescueRequest(row rowScanner) (rescues.Request, error) {
	var (
		x                                 rescues.Request
		website, logo, regNumb            sql.NullString
		status                            string
		decidedBy, decisionNote, rescueID sql.NullString
		decidedAt                         sql.NullTime
	)
	if err := row.Scan(
		&x.ID,
		&x.UserID,
		&x.Details.Name,
		&x.Details.Location,
		&x.Details.ContactEmail,
		&x.Details.Description,
		&website,
		&logo,
		&regNumb,
		&status,
		&decidedBy,
		&decisionNote,
		&rescueID,
		&decidedAt,
		&x.CreatedAt,
		&x.UpdatedAt,
	); err != nil {
		return rescues.Request{}, err
	}
	x.Details.Website = website.String
	x.Details.LogoURL = logo.String
	x.Details.RegistrationNumber = regNumb.String
	x.Status = rescues.RequestStatus(status)
	x.DecidedBy = decidedBy.String
	x.DecisionNote = decisionNote.String
	x.RescueID = rescueID.String
	x.DecidedAt = timePtr(decidedAt)
	return x, nil
}
