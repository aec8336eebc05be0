// Package app holds the request orchestration: session resolution, quota and
// ownership gates, and the HTTP surface. Persistence details live in
// internal/store behind the dataStore interface.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"planhub/api/internal/auth"
	"planhub/api/internal/otp"
	"planhub/api/internal/store"
)

type dataStore interface {
	Ping(ctx context.Context) error
	InsertAuditLog(ctx context.Context, level, message string, deviceID *uuid.UUID) error

	GetUser(ctx context.Context, id uuid.UUID) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUserWithDevice(ctx context.Context, device store.Device) (uuid.UUID, uuid.UUID, error)
	UpdateUserName(ctx context.Context, id uuid.UUID, name string) error
	ClaimEmail(ctx context.Context, id uuid.UUID, email string) error
	MergeAccounts(ctx context.Context, fromUserID, toUserID, deviceID uuid.UUID, maxDevices int) error
	DeleteAccount(ctx context.Context, id uuid.UUID, email *string) error

	GetDevice(ctx context.Context, id uuid.UUID) (store.Device, error)
	ListDevices(ctx context.Context, userID uuid.UUID) ([]store.Device, error)
	DeleteDevice(ctx context.Context, id uuid.UUID) (int64, error)

	GetPlan(ctx context.Context, id uuid.UUID) (store.Plan, error)
	ListPlans(ctx context.Context, userID uuid.UUID, planType string) ([]store.Plan, error)
	ListSharedPlans(ctx context.Context, userID uuid.UUID) ([]store.Plan, error)
	CountPlans(ctx context.Context, userID uuid.UUID, planType string) (int, error)
	InsertPlan(ctx context.Context, userID uuid.UUID, in store.PlanInput) (uuid.UUID, error)
	UpdatePlan(ctx context.Context, in store.PlanInput) error
	DeletePlan(ctx context.Context, userID, id uuid.UUID) error
	ChangePlanType(ctx context.Context, userID, id uuid.UUID, planType string) error
	MovePlan(ctx context.Context, userID uuid.UUID, planType string, oldOrder, newOrder int) error

	AddPlanMember(ctx context.Context, planID, userID uuid.UUID) error
	RemovePlanMember(ctx context.Context, planID, userID uuid.UUID) (int64, error)
	ListPlanMembers(ctx context.Context, planID uuid.UUID) ([]store.User, error)
	CountPlanMembers(ctx context.Context, planID uuid.UUID) (int, error)
	CountSharedPlans(ctx context.Context, ownerID uuid.UUID) (int, error)

	GetTask(ctx context.Context, id uuid.UUID) (store.Task, error)
	ListTasks(ctx context.Context, planID uuid.UUID) ([]store.Task, error)
	CountTasks(ctx context.Context, planID uuid.UUID) (int, error)
	InsertTask(ctx context.Context, planID uuid.UUID, title string) (uuid.UUID, error)
	DeleteTask(ctx context.Context, planID, id uuid.UUID) error
	UpdateTaskTitle(ctx context.Context, id uuid.UUID, title string) error
	SetTaskDone(ctx context.Context, planID, id uuid.UUID, done bool, oldOrder, newOrder int) error
	MoveTask(ctx context.Context, planID uuid.UUID, oldOrder, newOrder int) error

	InsertSuggestedEmail(ctx context.Context, userID uuid.UUID, email string) error
	GetSuggestedEmail(ctx context.Context, id uuid.UUID) (store.SuggestedEmail, error)
	ListSuggestedEmails(ctx context.Context, userID uuid.UUID) ([]store.SuggestedEmail, error)
	DeleteSuggestedEmail(ctx context.Context, id uuid.UUID) error
}

// Limits are the hard caps enforced at the orchestration layer.
type Limits struct {
	PlansPerType   int
	TasksPerPlan   int
	SharedPlans    int
	MembersPerPlan int
	DevicesPerUser int
}

type Service struct {
	store  dataStore
	tokens *auth.Tokens
	otp    otp.Sender
	limits Limits
}

func NewService(dataStore dataStore, tokens *auth.Tokens, sender otp.Sender, limits Limits) *Service {
	return &Service{store: dataStore, tokens: tokens, otp: sender, limits: limits}
}

// Session identifies the caller of one request. Email is nil until the user
// has verified an address; logged-in gates key off that.
type Session struct {
	UserID   uuid.UUID
	DeviceID uuid.UUID
	Email    *string
}

func (s Session) LoggedIn() bool {
	return s.Email != nil
}

// SessionFromToken resolves the bearer token into a live session. A token
// whose user or device no longer exists is as good as no token.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session user: %w", err)
	}
	device, err := s.store.GetDevice(ctx, claims.DeviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session device: %w", err)
	}
	if device.UserID != claims.UserID {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{UserID: user.ID, DeviceID: device.ID, Email: user.Email}, nil
}

// SessionWithoutDevice skips the device liveness check. Logout relies on it
// so a device evicted by a merge can still clean up after itself.
func (s *Service) SessionWithoutDevice(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session user: %w", err)
	}
	return Session{UserID: user.ID, DeviceID: claims.DeviceID, Email: user.Email}, nil
}

type CreatedUser struct {
	UserID   uuid.UUID
	DeviceID uuid.UUID
	Token    string
}

// RegisterUser bootstraps an anonymous account for a fresh install. The app
// calls this before the user has told us anything but the device it runs on.
func (s *Service) RegisterUser(ctx context.Context, device store.Device) (CreatedUser, error) {
	if strings.TrimSpace(device.Fingerprint) == "" {
		return CreatedUser{}, inputError("invalid_input", "device fingerprint is required")
	}
	userID, deviceID, err := s.store.CreateUserWithDevice(ctx, device)
	if err != nil {
		return CreatedUser{}, fmt.Errorf("create user: %w", err)
	}
	token, err := s.tokens.Issue(userID, deviceID)
	if err != nil {
		return CreatedUser{}, fmt.Errorf("issue token: %w", err)
	}
	return CreatedUser{UserID: userID, DeviceID: deviceID, Token: token}, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

var auditLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// RecordAudit ingests a client-side log line.
func (s *Service) RecordAudit(ctx context.Context, level, message string, deviceID *uuid.UUID) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if !auditLevels[level] {
		level = "info"
	}
	if strings.TrimSpace(message) == "" {
		return inputError("invalid_input", "message is required")
	}
	if len(message) > 4096 {
		message = message[:4096]
	}
	return s.store.InsertAuditLog(ctx, level, message, deviceID)
}
