package rescues

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/domain/users"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrBadState  = errors.New("invalid state")
)

const (
	MaxNameLen = 120
	MaxTextLen = 5000
)

// UserLinker convierte al solicitante en staff de la rescue aprobada.
type UserLinker interface {
	AttachToRescue(ctx context.Context, userID, rescueID string) (users.User, error)
}

type Service struct {
	repo     Repository
	requests RequestRepository
	users    UserLinker
	now      func() time.Time
}

func NewService(repo Repository, requests RequestRepository, linker UserLinker) *Service {
	return &Service{
		repo:     repo,
		requests: requests,
		users:    linker,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]Rescue, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Rescue, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Rescue{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

type UpdateInput struct {
	Name               *string
	Location           *string
	ContactEmail       *string
	Description        *string
	Website            *string
	LogoURL            *string
	RegistrationNumber *string
}

// Update: admin o staff de esa rescue.
func (s *Service) Update(ctx context.Context, viewer auth.Claims, id string, in UpdateInput) (Rescue, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return Rescue{}, err
	}
	if !viewer.CanManageRescue(r.ID) {
		return Rescue{}, ErrForbidden
	}

	d := Details{
		Name:               r.Name,
		Location:           r.Location,
		ContactEmail:       r.ContactEmail,
		Description:        r.Description,
		Website:            r.Website,
		LogoURL:            r.LogoURL,
		RegistrationNumber: r.RegistrationNumber,
	}
	apply(&d.Name, in.Name)
	apply(&d.Location, in.Location)
	apply(&d.ContactEmail, in.ContactEmail)
	apply(&d.Description, in.Description)
	apply(&d.Website, in.Website)
	apply(&d.LogoURL, in.LogoURL)
	apply(&d.RegistrationNumber, in.RegistrationNumber)

	d, err = normalizeDetails(d)
	if err != nil {
		return Rescue{}, err
	}

	r.Name, r.Location, r.ContactEmail, r.Description = d.Name, d.Location, d.ContactEmail, d.Description
	r.Website, r.LogoURL, r.RegistrationNumber = d.Website, d.LogoURL, d.RegistrationNumber
	r.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, r); err != nil {
		return Rescue{}, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, viewer auth.Claims, id string) error {
	if !viewer.IsAdmin() {
		return ErrForbidden
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SubmitRequest registra la solicitud de alta. Si el usuario ya tenía una
// pendiente, se actualiza la más reciente y las demás pendientes quedan withdrawn.
func (s *Service) SubmitRequest(ctx context.Context, viewer auth.Claims, in Details) (Request, error) {
	if !viewer.Authenticated() {
		return Request{}, ErrForbidden
	}
	if viewer.Role != auth.RoleUser {
		// rescue ya tiene rescue; admin no necesita pedir.
		return Request{}, validation.Errors{"role": "only regular users can request a rescue account"}
	}

	d, err := normalizeDetails(in)
	if err != nil {
		return Request{}, err
	}

	now := s.now().UTC()

	pending, err := s.requests.List(ctx, viewer.UserID, RequestPending)
	if err != nil {
		return Request{}, err
	}
	if winner, ok := latest(pending); ok {
		s.withdrawOthers(ctx, winner.ID, pending, now)

		winner.Details = d
		winner.UpdatedAt = now
		if err := s.requests.Update(ctx, winner); err != nil {
			return Request{}, err
		}
		return winner, nil
	}

	req := Request{
		ID:        uuid.NewString(),
		UserID:    viewer.UserID,
		Details:   d,
		Status:    RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, status RequestStatus) ([]Request, error) {
	return s.requests.List(ctx, "", status)
}

func (s *Service) MyRequests(ctx context.Context, userID string) ([]Request, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrForbidden
	}
	return s.requests.List(ctx, userID, "")
}

// Approve crea la rescue y vincula al solicitante. Idempotente si ya estaba aprobada.
func (s *Service) Approve(ctx context.Context, actor auth.Claims, requestID, note string) (Request, Rescue, error) {
	if !actor.IsAdmin() {
		return Request{}, Rescue{}, ErrForbidden
	}
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return Request{}, Rescue{}, err
	}

	switch req.Status {
	case RequestApproved:
		r, err := s.Get(ctx, req.RescueID)
		return req, r, err
	case RequestPending:
	default:
		return Request{}, Rescue{}, ErrBadState
	}

	now := s.now().UTC()
	rescue := Rescue{
		ID:                 uuid.NewString(),
		Name:               req.Details.Name,
		Location:           req.Details.Location,
		ContactEmail:       req.Details.ContactEmail,
		Description:        req.Details.Description,
		Website:            req.Details.Website,
		LogoURL:            req.Details.LogoURL,
		RegistrationNumber: req.Details.RegistrationNumber,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, rescue); err != nil {
		return Request{}, Rescue{}, err
	}
	if _, err := s.users.AttachToRescue(ctx, req.UserID, rescue.ID); err != nil {
		return Request{}, Rescue{}, fmt.Errorf("attach requester: %w", err)
	}

	req.Status = RequestApproved
	req.RescueID = rescue.ID
	req.DecidedBy = actor.UserID
	req.DecisionNote = strings.TrimSpace(note)
	req.DecidedAt = &now
	req.UpdatedAt = now
	if err := s.requests.Update(ctx, req); err != nil {
		return Request{}, Rescue{}, err
	}
	return req, rescue, nil
}

// Reject es idempotente si ya estaba rechazada.
func (s *Service) Reject(ctx context.Context, actor auth.Claims, requestID, note string) (Request, error) {
	if !actor.IsAdmin() {
		return Request{}, ErrForbidden
	}
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}

	switch req.Status {
	case RequestRejected:
		return req, nil
	case RequestPending:
	default:
		return Request{}, ErrBadState
	}

	now := s.now().UTC()
	req.Status = RequestRejected
	req.DecidedBy = actor.UserID
	req.DecisionNote = strings.TrimSpace(note)
	req.DecidedAt = &now
	req.UpdatedAt = now
	if err := s.requests.Update(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Service) getRequest(ctx context.Context, id string) (Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, ErrRequestNotFound
	}
	return s.requests.GetByID(ctx, id)
}

func (s *Service) withdrawOthers(ctx context.Context, winnerID string, items []Request, now time.Time) {
	for _, r := range items {
		if r.ID == winnerID || r.Status != RequestPending {
			continue
		}
		r.Status = RequestWithdrawn
		r.UpdatedAt = now
		_ = s.requests.Update(ctx, r) // best-effort
	}
}

func latest(items []Request) (Request, bool) {
	var winner Request
	found := false
	for _, r := range items {
		if !found || r.UpdatedAt.After(winner.UpdatedAt) {
			winner = r
			found = true
		}
	}
	return winner, found
}

func apply(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func normalizeDetails(d Details) (Details, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Location = strings.TrimSpace(d.Location)
	d.ContactEmail = strings.ToLower(strings.TrimSpace(d.ContactEmail))
	d.Description = strings.TrimSpace(d.Description)
	d.Website = strings.TrimSpace(d.Website)
	d.LogoURL = strings.TrimSpace(d.LogoURL)
	d.RegistrationNumber = strings.TrimSpace(d.RegistrationNumber)

	errs := validation.Errors{}
	validation.Required(errs, "name", d.Name)
	validation.MaxLen(errs, "name", d.Name, MaxNameLen)
	validation.Required(errs, "location", d.Location)
	validation.Email(errs, "contact_email", d.ContactEmail)
	validation.MaxLen(errs, "description", d.Description, MaxTextLen)
	validateOptionalURL(errs, "website", d.Website)
	validateOptionalURL(errs, "logo_url", d.LogoURL)
	return d, errs.Err()
}

func validateOptionalURL(errs validation.Errors, field, raw string) {
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(field, "must be an absolute http(s) url")
	}
}
