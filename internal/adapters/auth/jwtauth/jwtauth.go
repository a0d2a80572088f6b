package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pet-adoption-api/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("jwt secret not configured")
	ErrTokenEmpty    = errors.New("token is empty")
	ErrInvalidToken  = errors.New("invalid token")
)

const DefaultTTL = 24 * time.Hour

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type tokenClaims struct {
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	RescueID string `json:"rescue_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager emite y verifica tokens HS256. Implementa auth.TokenIssuer y auth.AuthVerifier.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func New(cfg Config) (*Manager, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (m *Manager) Issue(ctx context.Context, c auth.Claims) (string, time.Time, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return "", time.Time{}, errors.New("claims missing user id")
	}
	now := m.now().UTC()
	exp := now.Add(m.ttl)

	tc := tokenClaims{
		Email:    c.Email,
		Role:     string(c.Role),
		RescueID: c.RescueID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (m *Manager) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role, ok := auth.ParseRole(tc.Role)
	if !ok {
		return auth.Claims{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, tc.Role)
	}
	userID := strings.TrimSpace(tc.Subject)
	if userID == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return auth.Claims{
		UserID:   userID,
		Email:    tc.Email,
		Role:     role,
		RescueID: tc.RescueID,
	}, nil
}
