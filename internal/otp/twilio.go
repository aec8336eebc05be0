// Package otp sends and checks one-time passcodes over email through the
// Twilio Verify service.
package otp

import (
	"fmt"
	"slices"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

// StatusApproved is the Verify status that marks a passcode as accepted.
const StatusApproved = "approved"

// Sender hides the Twilio client so the service layer can swap in a fake.
type Sender interface {
	SendOtp(email string) (sid string, err error)
	VerifyOtp(email, sid, code string) (status string, err error)
}

type TwilioSender struct {
	client    *twilio.RestClient
	verifySID string
}

func NewTwilioSender(accountSID, authToken, verifySID string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, verifySID: verifySID}
}

func (s *TwilioSender) SendOtp(email string) (string, error) {
	params := &verify.CreateVerificationParams{}
	params.SetTo(email)
	params.SetChannel("email")

	verification, err := s.client.VerifyV2.CreateVerification(s.verifySID, params)
	if err != nil {
		return "", fmt.Errorf("send otp: %w", err)
	}
	if verification.Sid == nil {
		return "", fmt.Errorf("send otp: verification has no sid")
	}
	return *verification.Sid, nil
}

func (s *TwilioSender) VerifyOtp(email, sid, code string) (string, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(email)
	params.SetCode(code)
	params.SetVerificationSid(sid)

	check, err := s.client.VerifyV2.CreateVerificationCheck(s.verifySID, params)
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	if check.Status == nil {
		return "", fmt.Errorf("verify otp: verification check has no status")
	}
	return *check.Status, nil
}

// TestSender short-circuits a fixed list of review emails with a canned sid
// and passcode, and delegates everything else. App store reviewers have no
// inbox to receive a real code on.
type TestSender struct {
	Next   Sender
	Emails []string
	SID    string
	Code   string
}

func (s *TestSender) SendOtp(email string) (string, error) {
	if slices.Contains(s.Emails, email) {
		return s.SID, nil
	}
	return s.Next.SendOtp(email)
}

func (s *TestSender) VerifyOtp(email, sid, code string) (string, error) {
	if slices.Contains(s.Emails, email) {
		if sid == s.SID && code == s.Code {
			return StatusApproved, nil
		}
		return "pending", nil
	}
	return s.Next.VerifyOtp(email, sid, code)
}
