package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption-api/internal/domain/users"
)

type userRepo struct {
	mu     sync.RWMutex
	byID   map[string]users.User
	resets map[string]users.PasswordReset
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID:   make(map[string]users.User),
		resets: make(map[string]users.PasswordReset),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == "" {
		return errors.New("user id required")
	}
	if r.conflicts(u) {
		return users.ErrDuplicate
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByLogin(ctx context.Context, login string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	login = strings.TrimSpace(login)
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; !ok {
		return users.ErrNotFound
	}
	if r.conflicts(u) {
		return users.ErrDuplicate
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return users.ErrNotFound
	}
	delete(r.byID, id)
	for k, pr := range r.resets {
		if pr.UserID == id {
			delete(r.resets, k)
		}
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, f users.ListFilter) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]users.User, 0)
	for _, u := range r.byID {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.RescueID != "" && u.RescueID != f.RescueID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(u.Email, q) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt) ||
			(out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []users.User{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *userRepo) SaveReset(ctx context.Context, pr users.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resets[pr.TokenHash] = pr
	return nil
}

func (r *userRepo) GetReset(ctx context.Context, tokenHash string) (users.PasswordReset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pr, ok := r.resets[tokenHash]
	if !ok {
		return users.PasswordReset{}, users.ErrNotFound
	}
	return pr, nil
}

func (r *userRepo) MarkResetUsed(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pr, ok := r.resets[tokenHash]
	if !ok {
		return users.ErrNotFound
	}
	pr.Used = true
	r.resets[tokenHash] = pr
	return nil
}

// conflicts: otro usuario con el mismo username o email (sin distinguir mayúsculas).
func (r *userRepo) conflicts(u users.User) bool {
	for _, x := range r.byID {
		if x.ID == u.ID {
			continue
		}
		if strings.EqualFold(x.Username, u.Username) || strings.EqualFold(x.Email, u.Email) {
			return true
		}
	}
	return false
}
