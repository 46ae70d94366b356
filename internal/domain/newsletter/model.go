package newsletter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Batching limits for outbound sends.
const (
	BatchSize  = 10
	BatchPause = time.Second
)

// MarkerPrefix namespaces the per-article idempotency marker key.
const MarkerPrefix = "newsletter_sent_"

// Status describes how a dispatch settled.
type Status string

const (
	StatusSent          Status = "sent"
	StatusNoSubscribers Status = "no_subscribers"
	StatusAlreadySent   Status = "already_sent"
	StatusInProgress    Status = "in_progress"
)

// Domain errors
var (
	ErrEmptyArticleID = errors.New("article id cannot be empty")
	ErrEmptyTitle     = errors.New("article title cannot be empty")
)

// DispatchResult is the outcome of one dispatch call for an article.
type DispatchResult struct {
	ArticleID string `json:"articleId"`
	Status    Status `json:"status"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
}

// Success reports whether the dispatch settled without work left undone.
// A run where every send failed is not a success.
func (r DispatchResult) Success() bool {
	switch r.Status {
	case StatusSent:
		return r.Sent > 0 || r.Total == 0
	case StatusNoSubscribers, StatusAlreadySent:
		return true
	}
	return false
}

// Message renders a short summary for admin notifications.
func (r DispatchResult) Message() string {
	switch r.Status {
	case StatusAlreadySent:
		return "Newsletter already sent for this article"
	case StatusInProgress:
		return "Newsletter send in progress"
	case StatusNoSubscribers:
		return "No subscribers to notify"
	}
	if r.Failed == 0 {
		return fmt.Sprintf("Newsletter sent to %d subscribers", r.Sent)
	}
	return fmt.Sprintf("Newsletter sent to %d of %d subscribers (%d failed)", r.Sent, r.Total, r.Failed)
}

// MarkerKey returns the idempotency marker key for an article.
func MarkerKey(articleID string) string {
	return MarkerPrefix + articleID
}

// Batches partitions recipients into consecutive groups of at most size.
// PRE: size > 0
// POST: Concatenating the groups yields recipients in order; only the last group may be short
func Batches(recipients []string, size int) [][]string {
	if size <= 0 {
		size = BatchSize
	}
	var out [][]string
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		out = append(out, recipients[start:end])
	}
	return out
}

// Subject builds the newsletter subject line for an article title.
func Subject(title string) string {
	return "New Article: " + strings.TrimSpace(title)
}
