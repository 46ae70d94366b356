package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"dietwithdee/internal/adapters/http/middleware"
	"dietwithdee/internal/application/orchestrators"
	"dietwithdee/internal/domain/audit"
)

// recordAudit logs an admin action. Failures are logged and never block
// the request.
func recordAudit(r *http.Request, action audit.Action, resourceID, detail string) {
	if stores.AuditStore == nil {
		return
	}
	e := audit.Event{
		Action:     action,
		ResourceID: resourceID,
		Detail:     detail,
		IP:         middleware.ClientIP(r),
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		e.ActorID = sess.AccountID
		e.ActorEmail = sess.Email
	}
	if len(e.Detail) > audit.MaxDetailLength {
		e.Detail = e.Detail[:audit.MaxDetailLength]
	}
	if _, err := orchestrators.ExecuteRecordAudit(r.Context(), e, orchestrators.AuditDeps{Store: stores.AuditStore, Now: timeNow}); err != nil {
		slog.Error("audit_record_failed", "action", action, "error", err)
	}
}

// handleAdminAudit lists recent admin actions. ?action= filters and
// ?limit= bounds the result.
func handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if stores.AuditStore == nil {
		writeJSON(w, http.StatusOK, []audit.Event{})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	events, err := orchestrators.ExecuteListAudit(r.Context(), audit.Action(r.URL.Query().Get("action")), limit,
		orchestrators.AuditDeps{Store: stores.AuditStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
