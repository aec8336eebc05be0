package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"planhub/api/internal/store"
)

func TestVerifyOtpClaimsUnownedEmail(t *testing.T) {
	caller := uuid.New()
	device := uuid.New()

	var claimedUser uuid.UUID
	var claimedEmail string
	merged := false
	fs := &fakeStore{
		claimEmailFn: func(_ context.Context, id uuid.UUID, email string) error {
			claimedUser, claimedEmail = id, email
			return nil
		},
		mergeAccountsFn: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, int) error {
			merged = true
			return nil
		},
	}
	service := newTestService(fs)
	session := Session{UserID: caller, DeviceID: device}

	verified, err := service.VerifyOtp(context.Background(), session, "new@example.com", "sid-1", "123456")
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if claimedUser != caller || claimedEmail != "new@example.com" {
		t.Errorf("claimed %s for %s, want new@example.com for caller", claimedEmail, claimedUser)
	}
	if merged {
		t.Error("merge ran for an unowned email")
	}
	if verified.UserID != caller {
		t.Errorf("got user %s, want the caller %s", verified.UserID, caller)
	}
	if verified.Token == "" {
		t.Error("no token issued")
	}
}

func TestVerifyOtpMergesIntoExistingAccount(t *testing.T) {
	caller := uuid.New()
	device := uuid.New()
	established := uuid.New()
	establishedName := "Sam"

	var mergedFrom, mergedTo, mergedDevice uuid.UUID
	var maxDevices int
	fs := &fakeStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: established, Email: strptr(email), Name: &establishedName}, nil
		},
		mergeAccountsFn: func(_ context.Context, from, to, dev uuid.UUID, max int) error {
			mergedFrom, mergedTo, mergedDevice, maxDevices = from, to, dev, max
			return nil
		},
	}
	service := newTestService(fs)
	session := Session{UserID: caller, DeviceID: device}

	verified, err := service.VerifyOtp(context.Background(), session, "sam@example.com", "sid-1", "123456")
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if mergedFrom != caller || mergedTo != established || mergedDevice != device {
		t.Errorf("merged %s -> %s (device %s), want caller -> established (caller device)", mergedFrom, mergedTo, mergedDevice)
	}
	if maxDevices != 5 {
		t.Errorf("got device limit %d, want 5", maxDevices)
	}
	if verified.UserID != established {
		t.Errorf("got user %s, want the established account %s", verified.UserID, established)
	}
	if verified.Name == nil || *verified.Name != establishedName {
		t.Errorf("got name %v, want %q", verified.Name, establishedName)
	}
}

func TestVerifyOtpRejectsWrongCode(t *testing.T) {
	service := newTestService(&fakeStore{})
	session := Session{UserID: uuid.New(), DeviceID: uuid.New()}

	_, err := service.VerifyOtp(context.Background(), session, "new@example.com", "sid-1", "999999")
	if code := domainCode(t, err); code != "otp_not_approved" {
		t.Errorf("got code %q, want otp_not_approved", code)
	}
}

func TestVerifyOtpRejectsBadEmail(t *testing.T) {
	service := newTestService(&fakeStore{})
	session := Session{UserID: uuid.New(), DeviceID: uuid.New()}

	_, err := service.VerifyOtp(context.Background(), session, "not-an-email", "sid-1", "123456")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 400 {
		t.Errorf("got %v, want a 400 input error", err)
	}
}

func TestRegisterUserRequiresFingerprint(t *testing.T) {
	service := newTestService(&fakeStore{})

	_, err := service.RegisterUser(context.Background(), store.Device{Platform: "ios"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 400 {
		t.Errorf("got %v, want a 400 input error", err)
	}
}

func TestRegisterUserIssuesToken(t *testing.T) {
	service := newTestService(&fakeStore{})

	created, err := service.RegisterUser(context.Background(), store.Device{Fingerprint: "fp-1", Platform: "ios"})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	if created.Token == "" {
		t.Error("no token issued")
	}
	if created.UserID == uuid.Nil || created.DeviceID == uuid.Nil {
		t.Error("missing user or device id")
	}
}

func TestLogoutRejectsForeignDevice(t *testing.T) {
	fs := &fakeStore{
		getDeviceFn: func(_ context.Context, id uuid.UUID) (store.Device, error) {
			return store.Device{ID: id, UserID: uuid.New()}, nil
		},
	}
	service := newTestService(fs)

	err := service.Logout(context.Background(), Session{UserID: uuid.New()}, uuid.New())
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 401 {
		t.Errorf("got %v, want a 401 unauthorized error", err)
	}
}

func TestDeleteUserNeedsApprovedOtp(t *testing.T) {
	email := "owner@example.com"
	deleted := false
	fs := &fakeStore{
		getUserFn: func(_ context.Context, id uuid.UUID) (store.User, error) {
			return store.User{ID: id, Email: &email}, nil
		},
		deleteAccountFn: func(context.Context, uuid.UUID, *string) error {
			deleted = true
			return nil
		},
	}
	service := newTestService(fs)
	session := Session{UserID: uuid.New(), Email: &email}

	err := service.DeleteUser(context.Background(), session, "sid-1", "999999")
	if code := domainCode(t, err); code != "otp_not_approved" {
		t.Errorf("got code %q, want otp_not_approved", code)
	}
	if deleted {
		t.Error("account was deleted despite unapproved otp")
	}

	if err := service.DeleteUser(context.Background(), session, "sid-1", "123456"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if !deleted {
		t.Error("account was not deleted")
	}
}

func TestDeleteUserAnonymousAccountSkipsOtpGate(t *testing.T) {
	deleted := false
	fs := &fakeStore{
		deleteAccountFn: func(_ context.Context, _ uuid.UUID, email *string) error {
			if email != nil {
				t.Errorf("got email %q for an anonymous account, want nil", *email)
			}
			deleted = true
			return nil
		},
	}
	service := newTestService(fs)

	// No verified email on file, so the wrong passcode must not matter.
	if err := service.DeleteUser(context.Background(), Session{UserID: uuid.New()}, "sid-1", "999999"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if !deleted {
		t.Error("account was not deleted")
	}
}

func TestDeleteSuggestedEmailRejectsForeignRow(t *testing.T) {
	fs := &fakeStore{
		getSuggestedEmailFn: func(_ context.Context, id uuid.UUID) (store.SuggestedEmail, error) {
			return store.SuggestedEmail{ID: id, UserID: uuid.New()}, nil
		},
	}
	service := newTestService(fs)

	err := service.DeleteSuggestedEmail(context.Background(), Session{UserID: uuid.New()}, uuid.New())
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 401 {
		t.Errorf("got %v, want a 401 unauthorized error", err)
	}
}

func TestRefreshTokenReturnsProfile(t *testing.T) {
	email := "sam@example.com"
	name := "Sam"
	fs := &fakeStore{
		getUserFn: func(_ context.Context, id uuid.UUID) (store.User, error) {
			return store.User{ID: id, Email: &email, Name: &name}, nil
		},
	}
	service := newTestService(fs)
	session := Session{UserID: uuid.New(), DeviceID: uuid.New(), Email: &email}

	verified, err := service.RefreshToken(context.Background(), session)
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if verified.Token == "" {
		t.Error("no token issued")
	}
	if verified.Email == nil || *verified.Email != email {
		t.Errorf("got email %v, want %q", verified.Email, email)
	}
}
