package transactions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Record persiste la transacción asignando ID y fecha.
func (s *Service) Record(ctx context.Context, t Transaction) (Transaction, error) {
	if t.AmountCents < 0 || strings.TrimSpace(t.Currency) == "" || t.Status == "" || t.Kind == "" {
		return Transaction{}, ErrInvalidInput
	}
	t.ID = uuid.NewString()
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	t.CreatedAt = s.now().UTC()
	if t.Details == nil {
		t.Details = map[string]any{}
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Transaction{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ListForUser lista solo las transacciones del usuario.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.List(ctx, ListFilter{UserID: userID, Limit: limit})
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Transaction, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return s.repo.List(ctx, f)
}
