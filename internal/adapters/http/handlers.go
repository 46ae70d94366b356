package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"dietwithdee/internal/adapters/http/middleware"
	"dietwithdee/internal/adapters/http/perf"
	"dietwithdee/internal/application/orchestrators"
	"dietwithdee/internal/domain/account"
	"dietwithdee/internal/domain/article"
	"dietwithdee/internal/domain/audit"
	"dietwithdee/internal/domain/consultation"
	"dietwithdee/internal/domain/newsletter"
	"dietwithdee/internal/domain/profilelog"
	"dietwithdee/internal/domain/subscriber"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// errorBody is the JSON error envelope every API handler returns.
type errorBody struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// validationErrors are the domain errors that mean the caller sent bad input.
var validationErrors = []error{
	article.ErrEmptyTitle,
	article.ErrTitleTooLong,
	article.ErrEmptyContent,
	article.ErrInvalidFormat,
	article.ErrEmptyFilename,
	article.ErrEmptyImageURL,
	subscriber.ErrEmptyEmail,
	subscriber.ErrInvalidEmail,
	subscriber.ErrEmailTooLong,
	consultation.ErrInvalidWeight,
	consultation.ErrInvalidHeight,
	consultation.ErrInvalidAge,
	consultation.ErrInvalidSex,
	consultation.ErrInvalidActivity,
	consultation.ErrInvalidGoal,
	profilelog.ErrEmptyUserID,
	profilelog.ErrInvalidValue,
	profilelog.ErrNoteTooLong,
	newsletter.ErrEmptyArticleID,
	newsletter.ErrEmptyTitle,
	orchestrators.ErrProxyMissingFields,
	orchestrators.ErrProxyInvalidEmail,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	var fe consultation.FieldErrors
	return errors.As(err, &fe)
}

// writeDomainError maps use-case errors onto HTTP statuses. Anything
// unrecognised is logged and hidden behind a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var fe consultation.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fe.Error(), Fields: fe})
	case isValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, article.ErrNotFound):
		writeError(w, http.StatusNotFound, "Article not found")
	case errors.Is(err, orchestrators.ErrNoImageStore):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		internalError(w, err)
	}
}

// requireAdmin checks the session carries the admin role.
// POST: writes 401/403 and returns false when it does not
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		slog.Warn("auth_denied", "path", r.URL.Path, "reason", "no session")
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return middleware.Session{}, false
	}
	if sess.Role != "admin" {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", sess.AccountID, "role", sess.Role, "required", "admin")
		writeError(w, http.StatusForbidden, "Forbidden")
		return middleware.Session{}, false
	}
	return sess, true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin exchanges admin credentials for a session cookie.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow})
	var locked *account.LockedError
	switch {
	case errors.As(err, &locked):
		recordAudit(r, audit.ActionLoginFailed, "", "locked")
		secs := int(locked.RetryAfter(timeNow()) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeError(w, http.StatusLocked, orchestrators.ErrAccountLocked.Error())
		return
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		recordAudit(r, audit.ActionLoginFailed, "", "invalid credentials")
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}

	token, err := sessions.Create(res.AccountID, res.Email, res.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	slog.Info("admin_login", "account_id", res.AccountID)
	recordAudit(r.WithContext(middleware.ContextWithSession(r.Context(), middleware.Session{
		AccountID: res.AccountID,
		Email:     res.Email,
		Role:      res.Role,
	})), audit.ActionLogin, res.AccountID, "")
	body := map[string]any{
		"success": true,
		"email":   res.Email,
		"role":    res.Role,
	}
	if !res.PreviousLoginAt.IsZero() {
		body["lastLoginAt"] = res.PreviousLoginAt
	}
	writeJSON(w, http.StatusOK, body)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// handleChangePassword rotates the signed-in admin's password and signs
// out the account's other sessions.
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore, Now: timeNow})
	switch {
	case errors.Is(err, orchestrators.ErrCurrentPasswordWrong):
		writeError(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, orchestrators.ErrPasswordFieldsRequired),
		errors.Is(err, orchestrators.ErrNewPasswordSame),
		errors.Is(err, account.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}
	keep := ""
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil {
		keep = c.Value
	}
	revoked := sessions.RevokeAccount(sess.AccountID, keep)
	recordAudit(r, audit.ActionPasswordChange, sess.AccountID, "revoked "+strconv.Itoa(revoked)+" sessions")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "revokedSessions": revoked})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(c.Value)
	}
	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleMe reports the current session, if any.
func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"email":         sess.Email,
		"role":          sess.Role,
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAdminPerf returns request and query timings from the in-memory
// collector. ?minutes= bounds the window (default 60).
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	minutes := 60
	if v := r.URL.Query().Get("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "minutes must be a positive integer")
			return
		}
		minutes = n
	}
	if perfCollector == nil {
		writeJSON(w, http.StatusOK, perf.Snapshot{})
		return
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}
