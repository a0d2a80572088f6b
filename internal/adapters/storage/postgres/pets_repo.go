package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-api/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, ref_number,
	name, species, age, size, description,
	image_url, gallery, rescue_id,
	adopted, promoted, promoted_until,
	internal_notes, date_listed, updated_at, version`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	gallery, err := json.Marshal(nonNilGallery(p.Gallery))
	if err != nil {
		return pets.Pet{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO pets (
			id,
			name, species, age, size, description,
			image_url, gallery, rescue_id,
			adopted, promoted, promoted_until,
			internal_notes, date_listed, updated_at, version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING ref_number
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Age,
		string(p.Size),
		p.Description,
		p.ImageURL,
		gallery,
		p.RescueID,
		p.Adopted,
		p.Promoted,
		nullTime(p.PromotedUntil),
		p.InternalNotes,
		p.DateListed,
		p.UpdatedAt,
		p.Version,
	)
	if err := row.Scan(&p.RefNumber); err != nil {
		return pets.Pet{}, err
	}
	return p, nil
}

// Update solo escribe si la versión almacenada coincide; si no hay fila
// distingue entre "no existe" y "la modificó otro".
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet, expectedVersion int) error {
	gallery, err := json.Marshal(nonNilGallery(p.Gallery))
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			age = $4,
			size = $5,
			description = $6,
			image_url = $7,
			gallery = $8,
			rescue_id = $9,
			adopted = $10,
			promoted = $11,
			promoted_until = $12,
			internal_notes = $13,
			updated_at = $14,
			version = $15
		WHERE id = $1 AND version = $16
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Age,
		string(p.Size),
		p.Description,
		p.ImageURL,
		gallery,
		p.RescueID,
		p.Adopted,
		p.Promoted,
		nullTime(p.PromotedUntil),
		p.InternalNotes,
		p.UpdatedAt,
		p.Version,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pets WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pets.ErrNotFound
	}
	return pets.ErrVersionConflict
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

// List arma el WHERE a partir de Query; misma semántica que Query.Matches.
func (r *PetsRepo) List(ctx context.Context, q pets.Query) ([]pets.Pet, int, error) {
	where, args := petsWhere(q)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || q.Offset() >= total {
		return []pets.Pet{}, total, nil
	}

	argN := len(args) + 1
	query := `SELECT ` + petColumns + ` FROM pets` + where +
		` ORDER BY ` + petsOrderBy(q) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argN, argN+1)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0, q.Limit)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func petsWhere(q pets.Query) (string, []any) {
	conds := make([]string, 0, 8)
	args := make([]any, 0, 8)
	argN := 1

	if !q.IncludeAdopted {
		conds = append(conds, "adopted = FALSE")
	}
	if q.RescueID != "" {
		conds = append(conds, fmt.Sprintf("rescue_id = $%d", argN))
		args = append(args, q.RescueID)
		argN++
	}
	if len(q.Species) > 0 {
		placeholders := make([]string, 0, len(q.Species))
		for _, s := range q.Species {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(s))
			argN++
		}
		conds = append(conds, "species IN ("+strings.Join(placeholders, ",")+")")
	}
	if len(q.Sizes) > 0 {
		placeholders := make([]string, 0, len(q.Sizes))
		for _, s := range q.Sizes {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(s))
			argN++
		}
		conds = append(conds, "size IN ("+strings.Join(placeholders, ",")+")")
	}
	if q.MinAge != nil {
		conds = append(conds, fmt.Sprintf("age >= $%d", argN))
		args = append(args, *q.MinAge)
		argN++
	}
	if q.MaxAge != nil {
		conds = append(conds, fmt.Sprintf("age <= $%d", argN))
		args = append(args, *q.MaxAge)
		argN++
	}
	if q.Search != "" {
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argN, argN))
		args = append(args, "%"+escapeLike(q.Search)+"%")
		argN++
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// petsOrderBy: columna pedida y ref_number como desempate estable.
func petsOrderBy(q pets.Query) string {
	col := "date_listed"
	switch q.SortBy {
	case pets.SortAge:
		col = "age"
	case pets.SortName:
		col = "lower(name)"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", ref_number ASC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var (
		p        pets.Pet
		species  string
		size     string
		gallery  []byte
		promoted sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.RefNumber,
		&p.Name,
		&species,
		&p.Age,
		&size,
		&p.Description,
		&p.ImageURL,
		&gallery,
		&p.RescueID,
		&p.Adopted,
		&p.Promoted,
		&promoted,
		&p.InternalNotes,
		&p.DateListed,
		&p.UpdatedAt,
		&p.Version,
	); err != nil {
		return pets.Pet{}, err
	}

	p.Species = pets.Species(species)
	p.Size = pets.Size(size)
	p.PromotedUntil = timePtr(promoted)
	if len(gallery) > 0 {
		if err := json.Unmarshal(gallery, &p.Gallery); err != nil {
			return pets.Pet{}, fmt.Errorf("decode gallery of pet %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func nonNilGallery(g []string) []string {
	if g == nil {
		return []string{}
	}
	return g
}
