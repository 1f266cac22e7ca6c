package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xhatsu/reminder-me-api/internal/app"
	"github.com/xhatsu/reminder-me-api/internal/ratelimit"
	"github.com/xhatsu/reminder-me-api/internal/util"
	"github.com/xhatsu/reminder-me-api/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the HTTP endpoints of the reminder API.
type Server struct {
	app     *app.App
	limiter *ratelimit.FixedWindowLimiter
	proxies *util.TrustedProxies
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:     cfg.App,
		limiter: cfg.Limiter,
		proxies: cfg.TrustedProxies,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with shared middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("reminder-api", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.Handle("/register", s.rateLimited(http.HandlerFunc(s.handleRegister)))
	s.mux.Handle("/login", s.rateLimited(http.HandlerFunc(s.handleLogin)))
	s.mux.Handle("/google/signin", s.rateLimited(http.HandlerFunc(s.handleGoogleSignIn)))
	s.mux.HandleFunc("/logout", s.handleLogout)

	// users
	s.mux.Handle("/users/", s.authenticated(s.handleUserByEmail))

	// reminders
	s.mux.Handle("/reminders/get", s.authenticated(s.handleGetReminders))
	s.mux.HandleFunc("/reminders/add", s.handleAddReminder)
	s.mux.HandleFunc("/reminders/remove", s.handleRemoveReminder)
	s.mux.HandleFunc("/reminders/recipients/add", s.handleAddRecipient)
	s.mux.HandleFunc("/reminders/recipients/remove", s.handleRemoveRecipient)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// middleware

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(util.ClientIP(r, s.proxies)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// auth handlers

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Register(req.Username, req.Email, req.PasswordHash)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User " + user.Username + " registered successfully",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.PasswordHash == "" {
		writeError(w, http.StatusBadRequest, "username and password_hash required")
		return
	}
	user, token, err := s.app.Login(req.Username, req.PasswordHash)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (s *Server) handleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req googleSignInRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.GoogleSignIn(req.IDToken)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// user handlers

func (s *Server) handleUserByEmail(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	email := strings.TrimPrefix(r.URL.Path, "/users/")
	if email == "" || strings.Contains(email, "/") {
		http.NotFound(w, r)
		return
	}
	user, ok, err := s.app.UserByEmail(email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// reminder handlers

func (s *Server) handleGetReminders(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	feed, err := s.app.RemindersForUser(user.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req addReminderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" || req.DueDate == "" || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "title, due_date, and user_id required")
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date format. Use ISO format (YYYY-MM-DDTHH:MM:SS).")
		return
	}
	reminder, err := s.app.CreateReminder(req.Title, req.Message, dueDate, req.UserID, req.RecipientIDs)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Reminder created successfully",
		"reminder": reminder,
	})
}

func (s *Server) handleRemoveReminder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req removeReminderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == 0 || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "id and user_id required")
		return
	}
	if _, ok, err := s.app.UserByID(req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	} else if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err := s.app.DeleteReminder(req.ID, req.UserID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder removed successfully"})
}

func (s *Server) handleAddRecipient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	req, ok := decodeRecipientRequest(w, r)
	if !ok {
		return
	}
	if err := s.app.AddRecipient(req.ReminderID, req.UserID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Recipient added successfully"})
}

func (s *Server) handleRemoveRecipient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	req, ok := decodeRecipientRequest(w, r)
	if !ok {
		return
	}
	if err := s.app.RemoveRecipient(req.ReminderID, req.UserID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Recipient removed successfully"})
}

func decodeRecipientRequest(w http.ResponseWriter, r *http.Request) (recipientRequest, bool) {
	var req recipientRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.ReminderID == 0 || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "reminder_id and user_id required")
		return req, false
	}
	return req, true
}

// request/response shapes

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

type loginRequest struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type googleSignInRequest struct {
	IDToken string `json:"id_token"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type addReminderRequest struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	DueDate      string `json:"due_date"`
	UserID       uint   `json:"user_id"`
	RecipientIDs []uint `json:"recipient_ids"`
}

type removeReminderRequest struct {
	ID     uint `json:"id"`
	UserID uint `json:"user_id"`
}

type recipientRequest struct {
	ReminderID uint `json:"reminder_id"`
	UserID     uint `json:"user_id"`
}

// helpers

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

// Due dates are timezone-naive instants; RFC 3339 input is accepted too.
var dueDateLayouts = []string{"2006-01-02T15:04:05", time.RFC3339, "2006-01-02"}

func parseDueDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		slog.Warn("missing bearer prefix", "path", r.URL.Path)
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, status, "An error occurred")
		return
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrReminderNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrUserExists),
		errors.Is(err, app.ErrNotRecipient):
		return http.StatusConflict
	case errors.Is(err, app.ErrNotCreator):
		return http.StatusForbidden
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrInvalidIDToken):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrRegistrationFields),
		errors.Is(err, app.ErrTitleRequired),
		errors.Is(err, app.ErrDueDateRequired),
		errors.Is(err, app.ErrNoValidRecipients),
		errors.Is(err, app.ErrIDTokenRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
