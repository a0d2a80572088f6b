package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
	"pet-adoption-api/internal/ports/notify"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired reset token")
	ErrForbidden          = errors.New("forbidden")
)

const (
	MinPasswordLen = 8
	// bcrypt ignora todo lo que pase de 72 bytes.
	MaxPasswordBytes = 72
	DefaultResetTTL  = time.Hour
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

type Config struct {
	ResetTTL time.Duration
	// ResetURL es la página del frontend que recibe ?token=...
	ResetURL string
}

type Service struct {
	repo   Repository
	tokens auth.TokenIssuer
	mailer notify.Mailer
	cfg    Config
	log    logger.Logger

	now  func() time.Time
	cost int
}

func NewService(repo Repository, tokens auth.TokenIssuer, mailer notify.Mailer, cfg Config, log logger.Logger) *Service {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Profile  map[string]any
}

// Register crea siempre un usuario con rol user; los roles rescue/admin se
// asignan por solicitud de rescue aprobada o por un admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, Token, error) {
	errs := validation.Errors{}
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if !usernameRE.MatchString(username) {
		errs.Add("username", "must be 3-30 characters: letters, digits, '.', '_' or '-'")
	}
	validation.Email(errs, "email", email)
	validatePassword(errs, "password", in.Password)
	if err := errs.Err(); err != nil {
		return User{}, Token{}, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, Token{}, err
	}

	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
		Profile:      in.Profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Profile == nil {
		u.Profile = map[string]any{}
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, Token{}, err
	}

	tok, err := s.issue(ctx, u)
	if err != nil {
		return User{}, Token{}, err
	}
	return u, tok, nil
}

// Login acepta email o username. Usuario inexistente y password incorrecta
// devuelven el mismo error.
func (s *Service) Login(ctx context.Context, login, password string) (User, Token, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return User{}, Token{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, Token{}, ErrInvalidCredentials
		}
		return User{}, Token{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, Token{}, ErrInvalidCredentials
	}

	tok, err := s.issue(ctx, u)
	if err != nil {
		return User{}, Token{}, err
	}
	return u, tok, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

type ProfileInput struct {
	Username *string
	Email    *string
	Profile  map[string]any // nil = no tocar; se reemplaza completo
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	errs := validation.Errors{}
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if !usernameRE.MatchString(v) {
			errs.Add("username", "must be 3-30 characters: letters, digits, '.', '_' or '-'")
		}
		u.Username = v
	}
	if in.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Email))
		validation.Email(errs, "email", v)
		u.Email = v
	}
	if err := errs.Err(); err != nil {
		return User{}, err
	}
	if in.Profile != nil {
		u.Profile = in.Profile
	}

	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	errs := validation.Errors{}
	validatePassword(errs, "new_password", next)
	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, u)
}

// RequestPasswordReset manda un link de reset si el email existe.
// Si no existe no devuelve error, así no se pueden enumerar cuentas.
// El userID devuelto sirve para auditoría (vacío si no hubo envío).
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", validation.Errors{"email": "is required"}
	}

	u, err := s.repo.GetByLogin(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	raw, err := randomToken()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	if err := s.repo.SaveReset(ctx, PasswordReset{
		TokenHash: hashToken(raw),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.cfg.ResetTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}

	if s.mailer == nil {
		s.log.Warn("password reset requested but no mailer configured", map[string]any{"user_id": u.ID})
		return u.ID, nil
	}
	msg := notify.Message{
		To:      u.Email,
		Subject: "Reset your password",
		Text: fmt.Sprintf("Hi %s,\n\nUse this link to choose a new password (valid for %s):\n%s\n\nIf you didn't ask for this, ignore this email.\n",
			u.Username, s.cfg.ResetTTL, s.resetLink(raw)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("send reset email: %w", err)
	}
	return u.ID, nil
}

// ResetPassword consume el token (un solo uso) y fija la nueva password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	r, err := s.repo.GetReset(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if r.Used || !r.ExpiresAt.After(s.now().UTC()) {
		return "", ErrInvalidToken
	}

	errs := validation.Errors{}
	validatePassword(errs, "new_password", newPassword)
	if err := errs.Err(); err != nil {
		return "", err
	}

	u, err := s.Get(ctx, r.UserID)
	if err != nil {
		return "", err
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return "", err
	}
	if err := s.repo.MarkResetUsed(ctx, r.TokenHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			// otro request lo consumió primero
			return "", ErrInvalidToken
		}
		return "", err
	}

	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]User, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// SetRole cambia rol y rescue (admin). rescue exige rescueID; los demás roles lo limpian.
func (s *Service) SetRole(ctx context.Context, actor auth.Claims, id string, role auth.Role, rescueID string) (User, error) {
	if !actor.IsAdmin() {
		return User{}, ErrForbidden
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	rescueID = strings.TrimSpace(rescueID)
	switch role {
	case auth.RoleRescue:
		if rescueID == "" {
			return User{}, validation.Errors{"rescue_id": "is required for role rescue"}
		}
	case auth.RoleUser, auth.RoleAdmin:
		rescueID = ""
	default:
		return User{}, validation.Errors{"role": "must be one of user, rescue, admin"}
	}
	if u.ID == actor.UserID && role != auth.RoleAdmin {
		return User{}, validation.Errors{"role": "admins cannot demote themselves"}
	}

	u.Role = role
	u.RescueID = rescueID
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// AttachToRescue convierte al usuario en staff de la rescue (aprobación de solicitud).
func (s *Service) AttachToRescue(ctx context.Context, userID, rescueID string) (User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if u.Role == auth.RoleAdmin {
		return u, nil
	}
	u.Role = auth.RoleRescue
	u.RescueID = rescueID
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Claims, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if strings.TrimSpace(id) == actor.UserID {
		return validation.Errors{"id": "admins cannot delete themselves"}
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) issue(ctx context.Context, u User) (Token, error) {
	tok, exp, err := s.tokens.Issue(ctx, u.Claims())
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return Token{AccessToken: tok, ExpiresAt: exp}, nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *Service) resetLink(raw string) string {
	base := strings.TrimSpace(s.cfg.ResetURL)
	if base == "" {
		return raw
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(raw)
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String()
}

func validatePassword(errs validation.Errors, field, p string) {
	switch {
	case len([]rune(p)) < MinPasswordLen:
		errs.Add(field, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	case len(p) > MaxPasswordBytes:
		errs.Add(field, fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
