package users

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
	"pet-adoption-api/internal/ports/notify"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	byID   map[string]User
	resets map[string]PasswordReset
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}, resets: map[string]PasswordReset{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	for _, x := range r.byID {
		if strings.EqualFold(x.Username, u.Username) || x.Email == u.Email {
			return ErrDuplicate
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByLogin(ctx context.Context, login string) (User, error) {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]User, error) {
	out := make([]User, 0)
	for _, u := range r.byID {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *testRepo) SaveReset(ctx context.Context, pr PasswordReset) error {
	r.resets[pr.TokenHash] = pr
	return nil
}

func (r *testRepo) GetReset(ctx context.Context, tokenHash string) (PasswordReset, error) {
	pr, ok := r.resets[tokenHash]
	if !ok {
		return PasswordReset{}, ErrNotFound
	}
	return pr, nil
}

func (r *testRepo) MarkResetUsed(ctx context.Context, tokenHash string) error {
	pr := r.resets[tokenHash]
	pr.Used = true
	r.resets[tokenHash] = pr
	return nil
}

type fakeIssuer struct{ last auth.Claims }

func (f *fakeIssuer) Issue(ctx context.Context, c auth.Claims) (string, time.Time, error) {
	f.last = c
	return "token-" + c.UserID, time.Now().Add(time.Hour), nil
}

type fakeMailer struct{ sent []notify.Message }

func (m *fakeMailer) Send(ctx context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

var t0 = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *testRepo, *fakeIssuer, *fakeMailer) {
	repo := newTestRepo()
	iss := &fakeIssuer{}
	mail := &fakeMailer{}
	svc := NewService(repo, iss, mail, Config{ResetURL: "https://adopt.example/reset"}, nil)
	svc.now = func() time.Time { return t0 }
	svc.cost = bcrypt.MinCost
	return svc, repo, iss, mail
}

func register(t *testing.T, svc *Service, username, email string) User {
	t.Helper()
	u, _, err := svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: "s3cret-pass"})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo, iss, _ := newTestService()

	u, tok, err := svc.Register(context.Background(), RegisterInput{
		Username: "ana",
		Email:    " Ana@Example.com ",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, auth.RoleUser, u.Role)
	assert.Equal(t, "token-"+u.ID, tok.AccessToken)
	assert.NotEqual(t, "s3cret-pass", repo.byID[u.ID].PasswordHash)

	_, _, err = svc.Register(context.Background(), RegisterInput{Username: "ANA", Email: "other@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrDuplicate)

	for _, login := range []string{"ana", "ANA@example.com"} {
		got, _, err := svc.Login(context.Background(), login, "s3cret-pass")
		require.NoError(t, err, login)
		assert.Equal(t, u.ID, got.ID)
	}
	assert.Equal(t, u.ID, iss.last.UserID)

	_, _, err = svc.Login(context.Background(), "ana", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "ghost", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, _, err := svc.Register(context.Background(), RegisterInput{Username: "a b", Email: "nope", Password: "short"})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := newTestService()
	u := register(t, svc, "bruno", "bruno@example.com")

	assert.ErrorIs(t, svc.ChangePassword(context.Background(), u.ID, "bad", "another-pass"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "s3cret-pass", "another-pass"))

	_, _, err := svc.Login(context.Background(), "bruno", "another-pass")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _, mail := newTestService()
	u := register(t, svc, "caro", "caro@example.com")

	// Email desconocido: sin error y sin mail.
	id, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, mail.sent)

	id, err = svc.RequestPasswordReset(context.Background(), "CARO@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "caro@example.com", mail.sent[0].To)

	token := extractToken(t, mail.sent[0].Text)

	_, err = svc.ResetPassword(context.Background(), token, "brand-new-pass")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "caro", "brand-new-pass")
	assert.NoError(t, err)

	// Un solo uso.
	_, err = svc.ResetPassword(context.Background(), token, "yet-another-pass")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetExpires(t *testing.T) {
	svc, _, _, mail := newTestService()
	register(t, svc, "dani", "dani@example.com")

	_, err := svc.RequestPasswordReset(context.Background(), "dani@example.com")
	require.NoError(t, err)
	token := extractToken(t, mail.sent[0].Text)

	svc.now = func() time.Time { return t0.Add(DefaultResetTTL + time.Second) }
	_, err = svc.ResetPassword(context.Background(), token, "brand-new-pass")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSetRoleAndAttach(t *testing.T) {
	svc, _, _, _ := newTestService()
	u := register(t, svc, "eva", "eva@example.com")
	admin := auth.Claims{UserID: "root", Role: auth.RoleAdmin}

	_, err := svc.SetRole(context.Background(), auth.Claims{UserID: u.ID, Role: auth.RoleUser}, u.ID, auth.RoleAdmin, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SetRole(context.Background(), admin, u.ID, auth.RoleRescue, "")
	_, ok := validation.Fields(err)
	assert.True(t, ok)

	got, err := svc.SetRole(context.Background(), admin, u.ID, auth.RoleRescue, "rescue-9")
	require.NoError(t, err)
	assert.Equal(t, "rescue-9", got.RescueID)

	got, err = svc.SetRole(context.Background(), admin, u.ID, auth.RoleUser, "rescue-9")
	require.NoError(t, err)
	assert.Empty(t, got.RescueID)

	got, err = svc.AttachToRescue(context.Background(), u.ID, "rescue-1")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleRescue, got.Role)
	assert.Equal(t, "rescue-1", got.Claims().RescueID)
}

func TestDelete(t *testing.T) {
	svc, repo, _, _ := newTestService()
	u := register(t, svc, "fede", "fede@example.com")
	admin := auth.Claims{UserID: "root", Role: auth.RoleAdmin}

	assert.Error(t, svc.Delete(context.Background(), auth.Claims{UserID: "root", Role: auth.RoleAdmin}, "root"))
	require.NoError(t, svc.Delete(context.Background(), admin, u.ID))
	assert.Empty(t, repo.byID)
	assert.ErrorIs(t, svc.Delete(context.Background(), admin, u.ID), ErrNotFound)
}

func extractToken(t *testing.T, text string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "https://") {
			continue
		}
		u, err := url.Parse(line)
		require.NoError(t, err)
		tok := u.Query().Get("token")
		require.NotEmpty(t, tok)
		return tok
	}
	t.Fatalf("no reset link in %q", text)
	return ""
}
