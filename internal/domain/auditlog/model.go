package auditlog

import "time"

// Action identifica la operación registrada.
type Action string

const (
	ActionPetCreated           Action = "PET_CREATED"
	ActionPetUpdated           Action = "PET_UPDATED"
	ActionPetDeleted           Action = "PET_DELETED"
	ActionPetPromoted          Action = "PET_PROMOTED"
	ActionUserRegistered       Action = "USER_REGISTERED"
	ActionUserLogin            Action = "USER_LOGIN"
	ActionUserLoginFailed      Action = "USER_LOGIN_FAILED"
	ActionUserUpdated          Action = "USER_UPDATED"
	ActionUserDeleted          Action = "USER_DELETED"
	ActionPasswordChanged      Action = "PASSWORD_CHANGED"
	ActionPasswordReset        Action = "PASSWORD_RESET"
	ActionRescueUpdated        Action = "RESCUE_UPDATED"
	ActionRescueDeleted        Action = "RESCUE_DELETED"
	ActionRescueRequested      Action = "RESCUE_REQUESTED"
	ActionRescueRequestDecided Action = "RESCUE_REQUEST_DECIDED"
	ActionApplicationCreated   Action = "APPLICATION_CREATED"
	ActionApplicationDecided   Action = "APPLICATION_DECIDED"
	ActionCouponCreated        Action = "COUPON_CREATED"
	ActionCouponUpdated        Action = "COUPON_UPDATED"
	ActionCouponDeleted        Action = "COUPON_DELETED"
)

type EntityType string

const (
	EntityPet           EntityType = "pet"
	EntityUser          EntityType = "user"
	EntityRescue        EntityType = "rescue"
	EntityRescueRequest EntityType = "rescue_request"
	EntityApplication   EntityType = "application"
	EntityCoupon        EntityType = "coupon"
	EntityTransaction   EntityType = "transaction"
)

// Entry es append-only: no hay update ni delete.
type Entry struct {
	ID string

	Action     Action
	ActorID    string // vacío = anónimo / sistema
	EntityType EntityType
	EntityID   string
	Details    map[string]any

	IP        string
	UserAgent string

	CreatedAt time.Time
}
