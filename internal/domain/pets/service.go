package pets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

const (
	DefaultPageSize    = 12
	DefaultMaxPageSize = 50
)

type Service struct {
	repo        Repository
	now         func() time.Time
	pageSize    int
	maxPageSize int
	hooks       []func(ctx context.Context)
}

type Option func(*Service)

func WithPageSize(size, max int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
		if max >= s.pageSize {
			s.maxPageSize = max
		}
	}
}

// WithChangeHook registra un callback que corre después de cada mutación
// (lo usa el cache del pool de recomendaciones para invalidarse).
func WithChangeHook(fn func(ctx context.Context)) Option {
	return func(s *Service) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		now:         time.Now,
		pageSize:    DefaultPageSize,
		maxPageSize: DefaultMaxPageSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CreateInput struct {
	Name          string
	Species       string
	Age           int
	Size          string
	Description   string
	ImageURL      string
	Gallery       []string
	InternalNotes string
	// RescueID solo lo usa admin; una rescue siempre publica bajo su propia rescue.
	RescueID string
}

func (s *Service) Create(ctx context.Context, viewer auth.Claims, in CreateInput) (Pet, error) {
	rescueID := strings.TrimSpace(in.RescueID)
	switch {
	case viewer.IsAdmin():
		if rescueID == "" {
			return Pet{}, validation.Errors{"rescue_id": "is required for admin"}
		}
	case viewer.Role == auth.RoleRescue && viewer.RescueID != "":
		rescueID = viewer.RescueID
	default:
		return Pet{}, ErrForbidden
	}

	errs := validation.Errors{}
	validation.Required(errs, "name", in.Name)
	validation.MaxLen(errs, "name", in.Name, MaxNameLen)
	species, ok := ParseSpecies(in.Species)
	if !ok {
		errs.Add("species", "must be one of capybara, guinea_pig, rock_cavy, chinchilla")
	}
	size, ok := ParseSize(in.Size)
	if !ok {
		errs.Add("size", "must be one of small, medium, large, extra_large")
	}
	validateAge(errs, in.Age)
	validation.MaxLen(errs, "description", in.Description, MaxTextLen)
	validation.MaxLen(errs, "internal_notes", in.InternalNotes, MaxTextLen)
	validateImage(errs, "image_url", in.ImageURL)
	gallery := validateGallery(errs, in.Gallery)
	if err := errs.Err(); err != nil {
		return Pet{}, err
	}

	now := s.now().UTC()
	p := Pet{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Species:       species,
		Age:           in.Age,
		Size:          size,
		Description:   strings.TrimSpace(in.Description),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		Gallery:       gallery,
		RescueID:      rescueID,
		InternalNotes: strings.TrimSpace(in.InternalNotes),
		DateListed:    now,
		UpdatedAt:     now,
		Version:       1,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Pet{}, err
	}
	s.changed(ctx)
	return Redact(viewer, created), nil
}

// GetByID devuelve la mascota completa (sin redactar). Solo para uso interno entre servicios.
func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Get devuelve la mascota como la puede ver viewer.
func (s *Service) Get(ctx context.Context, viewer auth.Claims, id string) (Pet, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	return Redact(viewer, p), nil
}

func (s *Service) List(ctx context.Context, viewer auth.Claims, f Filter) (Page, error) {
	q, err := f.Normalize(viewer, s.pageSize, s.maxPageSize)
	if err != nil {
		return Page{}, err
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list pets: %w", err)
	}

	return Page{
		Items:      RedactAll(viewer, items),
		Pagination: NewPagination(q.Page, q.Limit, total),
	}, nil
}

// AvailablePool devuelve hasta limit mascotas no adoptadas, más recientes primero.
// Es la entrada del recomendador.
func (s *Service) AvailablePool(ctx context.Context, viewer auth.Claims, limit int) ([]Pet, error) {
	page, err := s.List(ctx, viewer, Filter{Limit: limit, Page: 1})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

type UpdateInput struct {
	// Punteros para update parcial: nil = no tocar.
	Name          *string
	Species       *string
	Age           *int
	Size          *string
	Description   *string
	ImageURL      *string
	Gallery       *[]string
	InternalNotes *string
	Adopted       *bool
	Promoted      *bool // solo admin

	// ExpectedVersion viene del body o de If-Match. nil = usa la versión leída.
	ExpectedVersion *int
}

func (s *Service) Update(ctx context.Context, viewer auth.Claims, id string, in UpdateInput) (Pet, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if !viewer.CanManageRescue(current.RescueID) {
		return Pet{}, ErrForbidden
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion != current.Version {
		return Pet{}, ErrVersionConflict
	}

	errs := validation.Errors{}
	next := current

	if in.Name != nil {
		validation.Required(errs, "name", *in.Name)
		validation.MaxLen(errs, "name", *in.Name, MaxNameLen)
		next.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		sp, ok := ParseSpecies(*in.Species)
		if !ok {
			errs.Add("species", "must be one of capybara, guinea_pig, rock_cavy, chinchilla")
		}
		next.Species = sp
	}
	if in.Age != nil {
		validateAge(errs, *in.Age)
		next.Age = *in.Age
	}
	if in.Size != nil {
		sz, ok := ParseSize(*in.Size)
		if !ok {
			errs.Add("size", "must be one of small, medium, large, extra_large")
		}
		next.Size = sz
	}
	if in.Description != nil {
		validation.MaxLen(errs, "description", *in.Description, MaxTextLen)
		next.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		validateImage(errs, "image_url", *in.ImageURL)
		next.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Gallery != nil {
		next.Gallery = validateGallery(errs, *in.Gallery)
	}
	if in.InternalNotes != nil {
		validation.MaxLen(errs, "internal_notes", *in.InternalNotes, MaxTextLen)
		next.InternalNotes = strings.TrimSpace(*in.InternalNotes)
	}
	if in.Adopted != nil {
		next.Adopted = *in.Adopted
	}
	if in.Promoted != nil {
		if !viewer.IsAdmin() {
			errs.Add("promoted", "can only be changed by an admin")
		}
		next.Promoted = *in.Promoted
		if !next.Promoted {
			next.PromotedUntil = nil
		}
	}
	if err := errs.Err(); err != nil {
		return Pet{}, err
	}

	if err := s.save(ctx, current, next); err != nil {
		return Pet{}, err
	}
	return s.Get(ctx, viewer, id)
}

// Delete es el borrado duro, solo admin.
func (s *Service) Delete(ctx context.Context, viewer auth.Claims, id string) error {
	if !viewer.IsAdmin() {
		return ErrForbidden
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// MarkAdopted lo usa applications al aprobar una solicitud.
func (s *Service) MarkAdopted(ctx context.Context, id string) (Pet, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if current.Adopted {
		return current, nil
	}
	next := current
	next.Adopted = true
	if err := s.save(ctx, current, next); err != nil {
		return Pet{}, err
	}
	return s.GetByID(ctx, id)
}

// Promote marca la mascota como destacada hasta until (lo usa promotions).
// Si ya estaba destacada, extiende desde el vencimiento vigente.
func (s *Service) Promote(ctx context.Context, id string, d time.Duration) (Pet, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	start := s.now().UTC()
	if current.Promoted && current.PromotedUntil != nil && current.PromotedUntil.After(start) {
		start = *current.PromotedUntil
	}
	until := start.Add(d)

	next := current
	next.Promoted = true
	next.PromotedUntil = &until
	if err := s.save(ctx, current, next); err != nil {
		return Pet{}, err
	}
	return s.GetByID(ctx, id)
}

func (s *Service) save(ctx context.Context, current, next Pet) error {
	next.UpdatedAt = s.now().UTC()
	next.Version = current.Version + 1
	if err := s.repo.Update(ctx, next, current.Version); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) changed(ctx context.Context) {
	for _, h := range s.hooks {
		h(ctx)
	}
}

func validateAge(errs validation.Errors, age int) {
	if age < 0 || age > MaxAge {
		errs.Add("age", fmt.Sprintf("must be between 0 and %d", MaxAge))
	}
}

func validateImage(errs validation.Errors, field, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(field, "must be an absolute http(s) url")
	}
}

func validateGallery(errs validation.Errors, in []string) []string {
	if len(in) > MaxGallerySize {
		errs.Add("gallery", fmt.Sprintf("must have at most %d images", MaxGallerySize))
		return nil
	}
	out := make([]string, 0, len(in))
	for i, raw := range in {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		validateImage(errs, fmt.Sprintf("gallery[%d]", i), raw)
		out = append(out, raw)
	}
	return out
}
