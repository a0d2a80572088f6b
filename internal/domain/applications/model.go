package applications

import (
	"strings"
	"time"
)

// Status es el enum canónico de una solicitud de adopción.
// @Enum pending, approved, rejected
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus acepta también los nombres viejos: accepted -> approved, unsuccessful -> rejected.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, true
	case "approved", "accepted":
		return StatusApproved, true
	case "rejected", "unsuccessful":
		return StatusRejected, true
	default:
		return "", false
	}
}

type Application struct {
	ID          string
	ApplicantID string
	PetID       string
	RescueID    string // copiado de la mascota al crear

	Status Status

	// FormData ya validado contra formSchema.
	FormData map[string]any

	DecidedBy    string
	DecisionNote string
	DecidedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
