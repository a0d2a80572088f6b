package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-api/internal/domain/applications"
)

type ApplicationsRepo struct {
	db *sql.DB
}

func NewApplicationsRepo(db *sql.DB) *ApplicationsRepo {
	return &ApplicationsRepo{db: db}
}

const applicationColumns = `
	id, applicant_id, pet_id, rescue_id, status, form_data,
	decided_by, decision_note, decided_at,
	created_at, updated_at`

// Create: el índice único parcial sobre (applicant_id, pet_id) WHERE status='pending'
// cubre la carrera entre el chequeo del servicio y el INSERT.
func (r *ApplicationsRepo) Create(ctx context.Context, a applications.Application) error {
	form, err := marshalMap(a.FormData)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		a.ID,
		a.ApplicantID,
		a.PetID,
		a.RescueID,
		string(a.Status),
		form,
		nullString(a.DecidedBy),
		nullString(a.DecisionNote),
		nullTime(a.DecidedAt),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return applications.ErrDuplicate
	}
	return err
}

func (r *ApplicationsRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return applications.Application{}, applications.ErrNotFound
	}
	return a, err
}

func (r *ApplicationsRepo) Update(ctx context.Context, a applications.Application) error {
	form, err := marshalMap(a.FormData)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE applications
		SET
			status = $2,
			form_data = $3,
			decided_by = $4,
			decision_note = $5,
			decided_at = $6,
			updated_at = $7
		WHERE id = $1
	`,
		a.ID,
		string(a.Status),
		form,
		nullString(a.DecidedBy),
		nullString(a.DecisionNote),
		nullTime(a.DecidedAt),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return applications.ErrNotFound
	}
	return nil
}

func (r *ApplicationsRepo) List(ctx context.Context, f applications.ListFilter) ([]applications.Application, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`)

	args := []any{}
	argN := 1
	add := func(col, val string) {
		if val == "" {
			return
		}
		sb.WriteString(fmt.Sprintf(" AND %s = $%d", col, argN))
		args = append(args, val)
		argN++
	}
	add("applicant_id", f.ApplicantID)
	add("rescue_id", f.RescueID)
	add("pet_id", f.PetID)
	add("status", string(f.Status))
	sb.WriteString(" ORDER BY created_at DESC, id ASC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]applications.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApplication(row rowScanner) (applications.Application, error) {
	var (
		a                   applications.Application
		status              string
		form                []byte
		decidedBy, decision sql.NullString
		decidedAt           sql.NullTime
	)
	if err := row.Scan(
		&a.ID,
		&a.ApplicantID,
		&a.PetID,
		&a.RescueID,
		&status,
		&form,
		&decidedBy,
		&decision,
		&decidedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return applications.Application{}, err
	}
	a.Status = applications.Status(status)
	a.DecidedBy = decidedBy.String
	a.DecisionNote = decision.String
	a.DecidedAt = timePtr(decidedAt)

	m, err := unmarshalMap(form)
	if err != nil {
		return applications.Application{}, fmt.Errorf("decode form of application %s: %w", a.ID, err)
	}
	a.FormData = m
	return a, nil
}
