package store

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlanTypeMain     = "Main"
	PlanTypeArchived = "Archived"

	PlanStatusOpen   = "Open"
	PlanStatusClosed = "Closed"
)

type User struct {
	ID    uuid.UUID
	Email *string
	Name  *string
}

type Device struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Platform    string
	Fingerprint string
	Info        string
	CreatedAt   time.Time
}

type Plan struct {
	ID          uuid.UUID
	Title       *string
	Type        string
	Status      string
	SortOrder   int
	Starts      *time.Time
	Ends        *time.Time
	DonePercent string
	IsShared    bool
	Owner       User
	Members     []User
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// PlanInput carries the caller-editable plan fields.
type PlanInput struct {
	ID     uuid.UUID
	Title  *string
	Starts *time.Time
	Ends   *time.Time
}

type Task struct {
	ID        uuid.UUID
	PlanID    uuid.UUID
	Title     string
	Done      bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type SuggestedEmail struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Email     string
	CreatedAt time.Time
}
