package rescues

import "time"

type Rescue struct {
	ID           string
	Name         string
	Location     string
	ContactEmail string
	Description  string

	// Opcionales
	Website            string
	LogoURL            string
	RegistrationNumber string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestStatus es el estado de una solicitud de alta de rescue.
// pending -> approved | rejected. withdrawn = colapsada por una solicitud más nueva del mismo usuario.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestWithdrawn RequestStatus = "withdrawn"
)

func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case RequestPending, RequestApproved, RequestRejected, RequestWithdrawn:
		return RequestStatus(s), true
	default:
		return "", false
	}
}

// Request es la solicitud de un usuario para registrar una rescue.
type Request struct {
	ID     string
	UserID string // quien solicita

	Details Details
	Status  RequestStatus

	// Al decidir
	DecidedBy    string
	DecisionNote string
	RescueID     string // rescue creada al aprobar
	DecidedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Details son los datos de la rescue propuesta.
type Details struct {
	Name               string
	Location           string
	ContactEmail       string
	Description        string
	Website            string
	LogoURL            string
	RegistrationNumber string
}
