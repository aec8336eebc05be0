package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"planhub/api/internal/otp"
	"planhub/api/internal/store"
)

type VerifiedUser struct {
	UserID   uuid.UUID
	DeviceID uuid.UUID
	Token    string
	Name     *string
	Email    *string
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// SendOtp asks the verification service to mail a passcode and returns the
// verification sid the client must echo back.
func (s *Service) SendOtp(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return "", inputError("invalid_input", "a valid email is required")
	}
	sid, err := s.otp.SendOtp(email)
	if err != nil {
		return "", fmt.Errorf("send otp: %w", err)
	}
	return sid, nil
}

// VerifyOtp turns a correct passcode into a logged-in session. If the email
// belongs to nobody the anonymous caller claims it; if it belongs to an
// established account the caller's plans and device fold into that account
// and the anonymous user is gone. Either way the old token stops working and
// the returned one takes over.
func (s *Service) VerifyOtp(ctx context.Context, session Session, email, sid, code string) (VerifiedUser, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) || sid == "" || code == "" {
		return VerifiedUser{}, inputError("invalid_input", "email, sid and otp are required")
	}

	status, err := s.otp.VerifyOtp(email, sid, code)
	if err != nil {
		return VerifiedUser{}, fmt.Errorf("verify otp: %w", err)
	}
	if status != otp.StatusApproved {
		return VerifiedUser{}, logicError("otp_not_approved", fmt.Sprintf("otp not verified, status: %s", status))
	}

	newUserID := session.UserID
	var name *string

	target, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := s.store.ClaimEmail(ctx, session.UserID, email); err != nil {
			return VerifiedUser{}, err
		}
	case err != nil:
		return VerifiedUser{}, err
	case target.ID == session.UserID:
		// Re-verifying an email the caller already owns is a login refresh.
		name = target.Name
	default:
		if err := s.store.MergeAccounts(ctx, session.UserID, target.ID, session.DeviceID, s.limits.DevicesPerUser); err != nil {
			return VerifiedUser{}, err
		}
		newUserID = target.ID
		name = target.Name
	}

	token, err := s.tokens.Issue(newUserID, session.DeviceID)
	if err != nil {
		return VerifiedUser{}, fmt.Errorf("issue token: %w", err)
	}
	return VerifiedUser{
		UserID:   newUserID,
		DeviceID: session.DeviceID,
		Token:    token,
		Name:     name,
		Email:    &email,
	}, nil
}

// RefreshToken reissues a token for a still-valid session.
func (s *Service) RefreshToken(ctx context.Context, session Session) (VerifiedUser, error) {
	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return VerifiedUser{}, unauthorizedError("user no longer exists")
	}
	if err != nil {
		return VerifiedUser{}, err
	}
	token, err := s.tokens.Issue(session.UserID, session.DeviceID)
	if err != nil {
		return VerifiedUser{}, fmt.Errorf("issue token: %w", err)
	}
	return VerifiedUser{
		UserID:   session.UserID,
		DeviceID: session.DeviceID,
		Token:    token,
		Name:     user.Name,
		Email:    user.Email,
	}, nil
}

func (s *Service) UpdateUserName(ctx context.Context, session Session, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return inputError("invalid_input", "name is required")
	}
	return s.store.UpdateUserName(ctx, session.UserID, name)
}

// Logout deletes the given device. Callers can only log out their own
// devices, which also covers remote logout of another device they own.
func (s *Service) Logout(ctx context.Context, session Session, deviceID uuid.UUID) error {
	device, err := s.store.GetDevice(ctx, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError("device not found")
	}
	if err != nil {
		return err
	}
	if device.UserID != session.UserID {
		return unauthorizedError("device does not belong to user")
	}
	_, err = s.store.DeleteDevice(ctx, deviceID)
	return err
}

// DeleteUser erases the account after one more OTP round-trip, so a stolen
// token alone cannot destroy years of plans. An account that never verified
// an email has nothing to send a passcode to; for those the bearer token is
// the only gate.
func (s *Service) DeleteUser(ctx context.Context, session Session, sid, code string) error {
	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return err
	}
	if user.Email != nil {
		status, err := s.otp.VerifyOtp(*user.Email, sid, code)
		if err != nil {
			return fmt.Errorf("verify otp: %w", err)
		}
		if status != otp.StatusApproved {
			return logicError("otp_not_approved", fmt.Sprintf("otp not verified, status: %s", status))
		}
	}
	return s.store.DeleteAccount(ctx, session.UserID, user.Email)
}

func (s *Service) GetDevices(ctx context.Context, session Session) ([]store.Device, error) {
	return s.store.ListDevices(ctx, session.UserID)
}

func (s *Service) GetSuggestedEmails(ctx context.Context, session Session) ([]store.SuggestedEmail, error) {
	return s.store.ListSuggestedEmails(ctx, session.UserID)
}

func (s *Service) DeleteSuggestedEmail(ctx context.Context, session Session, id uuid.UUID) error {
	suggested, err := s.store.GetSuggestedEmail(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError("suggested email not found")
	}
	if err != nil {
		return err
	}
	if suggested.UserID != session.UserID {
		return unauthorizedError("suggested email does not belong to user")
	}
	return s.store.DeleteSuggestedEmail(ctx, id)
}
