package auditlog

import (
	"context"
	"time"
)

type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}

type ListFilter struct {
	Actions    []Action
	EntityType EntityType
	EntityID   string
	ActorID    string
	From       *time.Time
	To         *time.Time
	Query      string
	Limit      int
}
