package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"planhub/api/internal/auth"
	"planhub/api/internal/ratelimit"
	"planhub/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	otpLimiter ratelimit.Limiter
	corsOrigin string
}

func NewHTTPServer(service *Service, otpLimiter ratelimit.Limiter, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, otpLimiter: otpLimiter, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// Account bootstrap is the only route with no token at all.
	if r.Method == http.MethodPost && r.URL.Path == "/api/users/create" {
		s.handleUserCreate(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/users/logout" {
		s.handleLogout(w, r)
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/users") {
		s.handleUsers(w, r, session)
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/audit/") {
		s.handleAudit(w, r, session)
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/plans") {
		s.handlePlans(w, r, session)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform    string `json:"platform"`
		Fingerprint string `json:"fingerprint"`
		Info        string `json:"info"`
		IsPhysical  bool   `json:"isPhysicalDevice"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if !body.IsPhysical {
		writeError(w, http.StatusBadRequest, "invalid_input", "device should be real, not a simulator")
		return
	}
	created, err := s.service.RegisterUser(r.Context(), store.Device{
		Platform:    body.Platform,
		Fingerprint: body.Fingerprint,
		Info:        body.Info,
	})
	if err != nil {
		status, code, message := mapError(err)
		writeError(w, status, code, message)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"userId":   created.UserID,
		"deviceId": created.DeviceID,
		"jwt":      created.Token,
	})
}

// handleLogout resolves the session without the device liveness check, so a
// device that was evicted elsewhere can still clean up its local state.
func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}
	session, err := s.service.SessionWithoutDevice(r.Context(), token)
	if err != nil {
		status, code, message := mapError(err)
		writeError(w, status, code, message)
		return
	}
	var body struct {
		DeviceID uuid.UUID `json:"deviceId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if body.DeviceID == uuid.Nil {
		body.DeviceID = session.DeviceID
	}
	if err := s.service.Logout(r.Context(), session, body.DeviceID); err != nil {
		status, code, message := mapError(err)
		writeError(w, status, code, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request, session Session) {
	parts := splitPath(r.URL.Path)

	if r.Method == http.MethodPost && r.URL.Path == "/api/users/send-otp" {
		if !s.allowOtp(w, r) {
			return
		}
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		sid, err := s.service.SendOtp(r.Context(), body.Email)
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sid": sid})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/users/verify-otp" {
		if !s.allowOtp(w, r) {
			return
		}
		var body struct {
			Email string `json:"email"`
			Sid   string `json:"sid"`
			Otp   string `json:"otp"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		verified, err := s.service.VerifyOtp(r.Context(), session, body.Email, body.Sid, body.Otp)
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, verifiedUserJSON(verified))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/users/refresh-token" {
		verified, err := s.service.RefreshToken(r.Context(), session)
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, verifiedUserJSON(verified))
		return
	}

	if r.Method == http.MethodPatch && r.URL.Path == "/api/users/name" {
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if err := s.service.UpdateUserName(r.Context(), session, body.Name); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodDelete && r.URL.Path == "/api/users" {
		var body struct {
			Sid string `json:"sid"`
			Otp string `json:"otp"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if err := s.service.DeleteUser(r.Context(), session, body.Sid, body.Otp); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/users/devices" {
		devices, err := s.service.GetDevices(r.Context(), session)
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		payload := make([]map[string]any, 0, len(devices))
		for _, d := range devices {
			payload = append(payload, map[string]any{
				"id":        d.ID,
				"platform":  d.Platform,
				"info":      d.Info,
				"createdAt": d.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": payload})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/users/suggested-emails" {
		emails, err := s.service.GetSuggestedEmails(r.Context(), session)
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		payload := make([]map[string]any, 0, len(emails))
		for _, se := range emails {
			payload = append(payload, map[string]any{
				"id":        se.ID,
				"email":     se.Email,
				"createdAt": se.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"suggestedEmails": payload})
		return
	}

	if r.Method == http.MethodDelete && len(parts) == 4 && parts[2] == "suggested-emails" {
		id, err := uuid.Parse(parts[3])
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid suggested email id")
			return
		}
		if err := s.service.DeleteSuggestedEmail(r.Context(), session, id); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleAudit(w http.ResponseWriter, r *http.Request, session Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		return
	}
	level := strings.TrimPrefix(r.URL.Path, "/api/audit/")
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	deviceID := session.DeviceID
	if err := s.service.RecordAudit(r.Context(), level, body.Message, &deviceID); err != nil {
		status, code, message := mapError(err)
		writeError(w, status, code, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handlePlans(w http.ResponseWriter, r *http.Request, session Session) {
	parts := splitPath(r.URL.Path)

	if len(parts) == 2 {
		switch r.Method {
		case http.MethodPost:
			var body planBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
				return
			}
			id, err := s.service.CreatePlan(r.Context(), session, store.PlanInput{
				Title:  body.Title,
				Starts: body.Starts,
				Ends:   body.Ends,
			})
			if err != nil {
				status, code, message := mapError(err)
				writeError(w, status, code, message)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": id})
			return
		case http.MethodGet:
			planType := r.URL.Query().Get("type")
			if planType == "" {
				planType = store.PlanTypeMain
			}
			plans, err := s.service.GetPlans(r.Context(), session, planType)
			if err != nil {
				status, code, message := mapError(err)
				writeError(w, status, code, message)
				return
			}
			payload := make([]map[string]any, 0, len(plans))
			for _, p := range plans {
				payload = append(payload, planJSON(p))
			}
			writeJSON(w, http.StatusOK, map[string]any{"plans": payload})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		return
	}

	if len(parts) == 3 && parts[2] == "reorder" && r.Method == http.MethodPatch {
		var body struct {
			Type     string `json:"type"`
			OldOrder int    `json:"oldOrder"`
			NewOrder int    `json:"newOrder"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if err := s.service.ReOrderPlans(r.Context(), session, body.Type, body.OldOrder, body.NewOrder); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	planID, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid plan id")
		return
	}

	if len(parts) == 3 {
		s.handlePlan(w, r, session, planID)
		return
	}

	if parts[3] == "tasks" {
		s.handleTasks(w, r, session, planID, parts)
		return
	}

	if len(parts) == 4 && r.Method == http.MethodPatch {
		s.handlePlanAction(w, r, session, planID, parts[3])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handlePlan(w http.ResponseWriter, r *http.Request, session Session, planID uuid.UUID) {
	switch r.Method {
	case http.MethodGet:
		plan, err := s.service.GetPlan(r.Context(), session, planID)
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, planJSON(plan))
		return
	case http.MethodPut:
		var body planBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		err := s.service.UpdatePlan(r.Context(), session, store.PlanInput{
			ID:     planID,
			Title:  body.Title,
			Starts: body.Starts,
			Ends:   body.Ends,
		})
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	case http.MethodDelete:
		if err := s.service.DeletePlan(r.Context(), session, planID); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

func (s *HTTPServer) handlePlanAction(w http.ResponseWriter, r *http.Request, session Session, planID uuid.UUID, action string) {
	switch action {
	case "share", "unshare":
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		var err error
		if action == "share" {
			err = s.service.SharePlan(r.Context(), session, planID, body.Email)
		} else {
			err = s.service.UnsharePlan(r.Context(), session, planID, body.Email)
		}
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	case "leave":
		if err := s.service.LeavePlan(r.Context(), session, planID); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	case "type":
		var body struct {
			Type string `json:"type"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if err := s.service.UpdatePlanType(r.Context(), session, planID, body.Type); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleTasks(w http.ResponseWriter, r *http.Request, session Session, planID uuid.UUID, parts []string) {
	if len(parts) == 4 {
		switch r.Method {
		case http.MethodGet:
			tasks, err := s.service.GetTasks(r.Context(), session, planID)
			if err != nil {
				status, code, message := mapError(err)
				writeError(w, status, code, message)
				return
			}
			payload := make([]map[string]any, 0, len(tasks))
			for _, t := range tasks {
				payload = append(payload, taskJSON(t))
			}
			writeJSON(w, http.StatusOK, map[string]any{"tasks": payload})
			return
		case http.MethodPost:
			var body struct {
				Title string `json:"title"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
				return
			}
			id, err := s.service.CreateTask(r.Context(), session, planID, body.Title)
			if err != nil {
				status, code, message := mapError(err)
				writeError(w, status, code, message)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": id})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		return
	}

	if len(parts) == 5 && parts[4] == "reorder" && r.Method == http.MethodPatch {
		var body struct {
			OldOrder int `json:"oldOrder"`
			NewOrder int `json:"newOrder"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if err := s.service.ReOrderTasks(r.Context(), session, planID, body.OldOrder, body.NewOrder); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	taskID, err := uuid.Parse(parts[4])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid task id")
		return
	}

	if len(parts) == 5 && r.Method == http.MethodDelete {
		if err := s.service.DeleteTask(r.Context(), session, planID, taskID); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if len(parts) == 6 && r.Method == http.MethodPatch {
		switch parts[5] {
		case "done":
			var body struct {
				Done bool `json:"done"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
				return
			}
			if err := s.service.UpdateTaskDone(r.Context(), session, planID, taskID, body.Done); err != nil {
				status, code, message := mapError(err)
				writeError(w, status, code, message)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case "title":
			var body struct {
				Title string `json:"title"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
				return
			}
			if err := s.service.UpdateTaskTitle(r.Context(), session, taskID, body.Title); err != nil {
				status, code, message := mapError(err)
				writeError(w, status, code, message)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

type planBody struct {
	Title  *string    `json:"title"`
	Starts *time.Time `json:"starts"`
	Ends   *time.Time `json:"ends"`
}

func planJSON(p store.Plan) map[string]any {
	payload := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"type":        p.Type,
		"status":      p.Status,
		"sortOrder":   p.SortOrder,
		"starts":      p.Starts,
		"ends":        p.Ends,
		"donePercent": p.DonePercent,
		"isShared":    p.IsShared,
		"user": map[string]any{
			"id":    p.Owner.ID,
			"email": p.Owner.Email,
			"name":  p.Owner.Name,
		},
	}
	if p.Members != nil {
		members := make([]map[string]any, 0, len(p.Members))
		for _, m := range p.Members {
			members = append(members, map[string]any{
				"id":    m.ID,
				"email": m.Email,
				"name":  m.Name,
			})
		}
		payload["members"] = members
	}
	return payload
}

func taskJSON(t store.Task) map[string]any {
	return map[string]any{
		"id":        t.ID,
		"planId":    t.PlanID,
		"title":     t.Title,
		"done":      t.Done,
		"sortOrder": t.SortOrder,
		"createdAt": t.CreatedAt,
		"updatedAt": t.UpdatedAt,
	}
}

func verifiedUserJSON(v VerifiedUser) map[string]any {
	return map[string]any{
		"userId":   v.UserID,
		"deviceId": v.DeviceID,
		"jwt":      v.Token,
		"name":     v.Name,
		"email":    v.Email,
	}
}

// allowOtp throttles the OTP endpoints per client address.
func (s *HTTPServer) allowOtp(w http.ResponseWriter, r *http.Request) bool {
	if s.otpLimiter == nil {
		return true
	}
	allowed, err := s.otpLimiter.Allow(r.Context(), clientIP(r))
	if err != nil {
		log.Printf("rate limiter error: %v", err)
		return true
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed")
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":  code,
		"error": message,
	})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found"
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error"
}
