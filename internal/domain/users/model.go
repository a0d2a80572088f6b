package users

import (
	"time"

	"pet-adoption-api/internal/ports/auth"
)

type User struct {
	ID       string
	Username string
	Email    string // guardado en minúsculas

	PasswordHash string

	Role     auth.Role
	RescueID string // solo rol rescue

	// Profile es info libre del perfil (teléfono, ciudad, bio...).
	Profile map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Claims arma las claims del token para el usuario.
func (u User) Claims() auth.Claims {
	return auth.Claims{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		RescueID: u.RescueID,
	}
}

// PasswordReset guarda solo el hash del token enviado por mail.
type PasswordReset struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Token es lo que devuelven login y registro.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}
