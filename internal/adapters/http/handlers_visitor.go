package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"dietwithdee/internal/adapters/http/middleware"
	"dietwithdee/internal/application/orchestrators"
	"dietwithdee/internal/domain/consultation"
	"dietwithdee/internal/domain/popup"
)

const (
	popupCookieName   = "dwd_popup"
	visitorCookieName = "dwd_visitor"
	visitorCookieTTL  = 365 * 24 * time.Hour
)

// encodePopupState serialises the state as "count:unixLast:subscribed:onboarding".
func encodePopupState(s popup.State) string {
	last := int64(0)
	if !s.LastDismissed.IsZero() {
		last = s.LastDismissed.Unix()
	}
	return fmt.Sprintf("%d:%d:%s:%s", s.DismissCount, last, flag(s.Subscribed), flag(s.OnboardingDismissed))
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// decodePopupState parses a cookie value. Malformed parts fall back to
// their zero values so a bad cookie only resets the popup.
func decodePopupState(v string) popup.State {
	var s popup.State
	parts := strings.Split(v, ":")
	if len(parts) != 4 {
		return s
	}
	if n, err := strconv.Atoi(parts[0]); err == nil && n > 0 {
		s.DismissCount = n
	}
	if ts, err := strconv.ParseInt(parts[1], 10, 64); err == nil && ts > 0 {
		s.LastDismissed = time.Unix(ts, 0).UTC()
	}
	s.Subscribed = parts[2] == "1"
	s.OnboardingDismissed = parts[3] == "1"
	return s
}

func popupState(r *http.Request) popup.State {
	c, err := r.Cookie(popupCookieName)
	if err != nil {
		return popup.State{}
	}
	return decodePopupState(c.Value)
}

func setPopupState(w http.ResponseWriter, s popup.State) {
	http.SetCookie(w, &http.Cookie{
		Name:     popupCookieName,
		Value:    encodePopupState(s),
		Path:     "/",
		MaxAge:   int(visitorCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   middleware.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

type popupResponse struct {
	ShowPopup      bool       `json:"showPopup"`
	ShowOnboarding bool       `json:"showOnboarding"`
	NextShowAt     *time.Time `json:"nextShowAt,omitempty"`
	DismissCount   int        `json:"dismissCount"`
	Subscribed     bool       `json:"subscribed"`
}

func popupView(s popup.State, now time.Time) popupResponse {
	resp := popupResponse{
		ShowPopup:      popup.ShouldShow(s, now),
		ShowOnboarding: !s.OnboardingDismissed,
		DismissCount:   s.DismissCount,
		Subscribed:     s.Subscribed,
	}
	if next := popup.NextShowAt(s); !next.IsZero() && !s.Subscribed {
		resp.NextShowAt = &next
	}
	return resp
}

// handlePopup reports whether the subscription popup and onboarding banner
// should be shown to this visitor.
func handlePopup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, popupView(popupState(r), timeNow()))
}

func handlePopupDismiss(w http.ResponseWriter, r *http.Request) {
	now := timeNow()
	s := popup.Dismiss(popupState(r), now)
	setPopupState(w, s)
	writeJSON(w, http.StatusOK, popupView(s, now))
}

func handleOnboardingDismiss(w http.ResponseWriter, r *http.Request) {
	s := popup.DismissOnboarding(popupState(r))
	setPopupState(w, s)
	writeJSON(w, http.StatusOK, popupView(s, timeNow()))
}

func visitorID(r *http.Request) string {
	c, err := r.Cookie(visitorCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// handleVisitor returns the anonymous visitor id, issuing one on first visit.
func handleVisitor(w http.ResponseWriter, r *http.Request) {
	id := visitorID(r)
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(visitorCookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   middleware.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

type snapshotRequest struct {
	consultation.CalculatorInput
	Note string `json:"note"`
}

// handleProfileLogs handles GET (history) and POST (record a calculator run)
// for /api/profile/{userID}/logs. Only the visitor owning the id, or an
// admin, may access it.
func handleProfileLogs(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if userID != visitorID(r) && !middleware.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	deps := orchestrators.ProfileDeps{Store: stores.ProfileLogStore, Now: timeNow}

	switch r.Method {
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		list, err := orchestrators.ExecuteListSnapshots(r.Context(), userID, limit, deps)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req snapshotRequest
		if err := strictDecode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		snap, err := orchestrators.ExecuteSaveSnapshot(r.Context(), orchestrators.SaveSnapshotInput{
			UserID: userID,
			Input:  req.CalculatorInput,
			Note:   req.Note,
		}, deps)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
