// Package audit records admin actions on site content.
package audit

import (
	"errors"
	"strings"
	"time"
)

// Action names what the admin did.
type Action string

const (
	ActionLogin            Action = "login"
	ActionLoginFailed      Action = "login_failed"
	ActionPasswordChange   Action = "password_change"
	ActionArticlePublish   Action = "article_publish"
	ActionArticleUpdate    Action = "article_update"
	ActionArticleDelete    Action = "article_delete"
	ActionNewsletterResend Action = "newsletter_resend"
)

// MaxDetailLength bounds the free-text detail.
const MaxDetailLength = 500

var (
	ErrEmptyAction   = errors.New("audit action cannot be empty")
	ErrDetailTooLong = errors.New("audit detail cannot exceed 500 characters")
)

// Event is one entry in the admin activity log.
type Event struct {
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
	Action     Action    `json:"action"`
	ActorID    string    `json:"actorId,omitempty"`
	ActorEmail string    `json:"actorEmail,omitempty"`
	ResourceID string    `json:"resourceId,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	IP         string    `json:"ip,omitempty"`
}

// Validate checks that the Event can be stored.
// PRE: none
// POST: Returns nil if valid, error otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(string(e.Action)) == "" {
		return ErrEmptyAction
	}
	if len(e.Detail) > MaxDetailLength {
		return ErrDetailTooLong
	}
	return nil
}
