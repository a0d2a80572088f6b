package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"pet-adoption-api/internal/domain/auditlog"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, e auditlog.Entry) error {
	var details []byte
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = b
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, action, actor_id,
			entity_type, entity_id, details,
			ip, user_agent, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		e.ID,
		string(e.Action),
		nullString(e.ActorID),
		string(e.EntityType),
		e.EntityID,
		details,
		nullString(e.IP),
		nullString(e.UserAgent),
		e.CreatedAt,
	)
	return err
}

func (r *AuditRepo) List(ctx context.Context, filter auditlog.ListFilter) ([]auditlog.Entry, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, action, actor_id,
			entity_type, entity_id, details,
			ip, user_agent, created_at
		FROM audit_logs
		WHERE 1=1
	`)

	args := []any{}
	argN := 1

	if len(filter.Actions) > 0 {
		placeholders := make([]string, 0, len(filter.Actions))
		for _, a := range filter.Actions {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(a))
			argN++
		}
		sb.WriteString(" AND action IN (" + strings.Join(placeholders, ",") + ")")
	}
	if filter.EntityType != "" {
		sb.WriteString(fmt.Sprintf(" AND entity_type = $%d", argN))
		args = append(args, string(filter.EntityType))
		argN++
	}
	if filter.EntityID != "" {
		sb.WriteString(fmt.Sprintf(" AND entity_id = $%d", argN))
		args = append(args, filter.EntityID)
		argN++
	}
	if filter.ActorID != "" {
		sb.WriteString(fmt.Sprintf(" AND actor_id = $%d", argN))
		args = append(args, filter.ActorID)
		argN++
	}
	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND created_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND created_at <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (action ILIKE $%d OR entity_type ILIKE $%d OR entity_id ILIKE $%d)", argN, argN, argN))
		args = append(args, "%"+escapeLike(q)+"%")
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = auditlog.DefaultLimit
	}
	if limit > auditlog.MaxLimit {
		limit = auditlog.MaxLimit
	}
	sb.WriteString(" ORDER BY created_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]auditlog.Entry, 0)
	for rows.Next() {
		var (
			e                  auditlog.Entry
			action, entityType string
			actorID, ip, ua    sql.NullString
			details            []byte
		)
		if err := rows.Scan(
			&e.ID,
			&action,
			&actorID,
			&entityType,
			&e.EntityID,
			&details,
			&ip,
			&ua,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Action = auditlog.Action(action)
		e.EntityType = auditlog.EntityType(entityType)
		e.ActorID = actorID.String
		e.IP = ip.String
		e.UserAgent = ua.String
		if e.Details, err = unmarshalMap(details); err != nil {
			return nil, fmt.Errorf("decode details of audit entry %s: %w", e.ID, err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
