package applications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
)

var (
	ErrForbidden  = errors.New("forbidden")
	ErrPetAdopted = errors.New("pet already adopted")
	ErrBadState   = errors.New("application already decided")
)

const (
	MaxNoteLen = 1000

	// nota para las pendientes que se rechazan al aprobar otra.
	autoRejectNote = "pet adopted through another application"
)

// Pets es lo que applications necesita de pets.
type Pets interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	MarkAdopted(ctx context.Context, id string) (pets.Pet, error)
}

type Service struct {
	repo Repository
	pets Pets
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, p Pets, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		pets: p,
		log:  log,
		now:  time.Now,
	}
}

type CreateInput struct {
	PetID    string
	FormData map[string]any
}

// View es una solicitud junto a la mascota ya filtrada para quien la mira.
type View struct {
	Application Application
	Pet         pets.Pet
}

func (s *Service) Create(ctx context.Context, viewer auth.Claims, in CreateInput) (Application, error) {
	if !viewer.Authenticated() {
		return Application{}, ErrForbidden
	}

	petID := strings.TrimSpace(in.PetID)
	if petID == "" {
		return Application{}, validation.Errors{"pet_id": "is required"}
	}
	if err := validateForm(in.FormData); err != nil {
		return Application{}, err
	}

	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return Application{}, err
	}
	if pet.Adopted {
		return Application{}, ErrPetAdopted
	}

	existing, err := s.repo.List(ctx, ListFilter{ApplicantID: viewer.UserID, PetID: pet.ID, Status: StatusPending})
	if err != nil {
		return Application{}, err
	}
	if len(existing) > 0 {
		return Application{}, ErrDuplicate
	}

	now := s.now().UTC()
	a := Application{
		ID:          uuid.NewString(),
		ApplicantID: viewer.UserID,
		PetID:       pet.ID,
		RescueID:    pet.RescueID,
		Status:      StatusPending,
		FormData:    in.FormData,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Application{}, err
	}
	return a, nil
}

// Get: el solicitante, la rescue dueña de la mascota o admin.
func (s *Service) Get(ctx context.Context, viewer auth.Claims, id string) (View, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if !canView(viewer, a) {
		// no revela existencia
		return View{}, ErrNotFound
	}

	pet, err := s.pets.GetByID(ctx, a.PetID)
	if err != nil && !errors.Is(err, pets.ErrNotFound) {
		return View{}, err
	}
	return View{Application: a, Pet: pets.Redact(viewer, pet)}, nil
}

// List acota por rol: user ve las suyas, rescue las de su rescue, admin todas.
func (s *Service) List(ctx context.Context, viewer auth.Claims, status Status) ([]Application, error) {
	f := ListFilter{Status: status}
	switch {
	case viewer.IsAdmin():
	case viewer.Role == auth.RoleRescue && viewer.RescueID != "":
		f.RescueID = viewer.RescueID
	case viewer.Authenticated():
		f.ApplicantID = viewer.UserID
	default:
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, f)
}

// Decide aprueba o rechaza. Aprobar marca la mascota como adoptada y rechaza
// el resto de solicitudes pendientes para esa mascota.
func (s *Service) Decide(ctx context.Context, viewer auth.Claims, id string, status Status, note string) (Application, error) {
	note = strings.TrimSpace(note)

	errs := validation.Errors{}
	if status != StatusApproved && status != StatusRejected {
		errs.Add("status", "must be approved or rejected")
	}
	validation.MaxLen(errs, "note", note, MaxNoteLen)
	if err := errs.Err(); err != nil {
		return Application{}, err
	}

	a, err := s.get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !viewer.CanManageRescue(a.RescueID) {
		return Application{}, ErrForbidden
	}

	switch {
	case a.Status == status:
		return a, nil
	case a.Status != StatusPending:
		return Application{}, ErrBadState
	}

	if status == StatusApproved {
		// la mascota pudo quedar adoptada por otra vía (p.ej. PUT /pets/{id})
		pet, err := s.pets.GetByID(ctx, a.PetID)
		if err != nil {
			return Application{}, err
		}
		if pet.Adopted {
			return Application{}, ErrPetAdopted
		}
		if _, err := s.pets.MarkAdopted(ctx, a.PetID); err != nil {
			return Application{}, err
		}
	}

	now := s.now().UTC()
	a.Status = status
	a.DecidedBy = viewer.UserID
	a.DecisionNote = note
	a.DecidedAt = &now
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return Application{}, err
	}

	if status == StatusApproved {
		s.rejectOthers(ctx, a, now)
	}
	return a, nil
}

func (s *Service) rejectOthers(ctx context.Context, winner Application, now time.Time) {
	pending, err := s.repo.List(ctx, ListFilter{PetID: winner.PetID, Status: StatusPending})
	if err != nil {
		s.log.Error("list competing applications failed", map[string]any{
			"pet_id": winner.PetID,
			"error":  err,
		})
		return
	}
	for _, other := range pending {
		if other.ID == winner.ID {
			continue
		}
		decidedAt := now
		other.Status = StatusRejected
		other.DecidedBy = winner.DecidedBy
		other.DecisionNote = autoRejectNote
		other.DecidedAt = &decidedAt
		other.UpdatedAt = now
		if err := s.repo.Update(ctx, other); err != nil {
			s.log.Error("auto-reject application failed", map[string]any{
				"application_id": other.ID,
				"error":          err,
			})
		}
	}
}

func (s *Service) get(ctx context.Context, id string) (Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Application{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func canView(viewer auth.Claims, a Application) bool {
	if !viewer.Authenticated() {
		return false
	}
	return viewer.UserID == a.ApplicantID || viewer.CanManageRescue(a.RescueID)
}
