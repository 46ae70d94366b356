package orchestrators

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"dietwithdee/internal/adapters/email"
	"dietwithdee/internal/adapters/metrics"
	"dietwithdee/internal/domain/newsletter"
	"dietwithdee/internal/domain/subscriber"
)

// SubscriberLister is the subscriber store surface the dispatcher reads.
type SubscriberLister interface {
	List(ctx context.Context) ([]subscriber.Subscriber, error)
}

// MarkerStore holds the per-article "already sent" flags.
type MarkerStore interface {
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string) error
}

// DispatchInput identifies the article being announced.
type DispatchInput struct {
	ArticleID string
	Title     string
	ImageURL  string
}

// DispatcherDeps holds dependencies for a Dispatcher.
type DispatcherDeps struct {
	Subscribers SubscriberLister
	Markers     MarkerStore
	Sender      email.Sender

	SiteURL  string
	From     string
	FromName string
	ReplyTo  string

	// BatchSize and BatchPause default to newsletter.BatchSize and
	// newsletter.BatchPause when zero.
	BatchSize  int
	BatchPause time.Duration
	// Sleep waits between batches. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Dispatcher sends the new-article newsletter. Each instance owns its
// in-flight lock set; share one instance per process.
type Dispatcher struct {
	deps DispatcherDeps

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewDispatcher builds a Dispatcher, filling zero-valued tuning fields.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.BatchSize <= 0 {
		deps.BatchSize = newsletter.BatchSize
	}
	if deps.BatchPause <= 0 {
		deps.BatchPause = newsletter.BatchPause
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	if deps.SiteURL == "" {
		deps.SiteURL = newsletter.DefaultSiteURL
	}
	return &Dispatcher{deps: deps, inflight: make(map[string]struct{})}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// tryLock adds articleID to the in-flight set. It reports false when a
// dispatch for the same article is already running.
func (d *Dispatcher) tryLock(articleID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[articleID]; busy {
		return false
	}
	d.inflight[articleID] = struct{}{}
	return true
}

func (d *Dispatcher) unlock(articleID string) {
	d.mu.Lock()
	delete(d.inflight, articleID)
	d.mu.Unlock()
}

// InFlight reports whether a dispatch for articleID is running.
func (d *Dispatcher) InFlight(articleID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[articleID]
	return ok
}

// Dispatch announces an article to every unique subscriber. Once started
// it runs to the end even if ctx is cancelled: the marker is written after
// the loop, so stopping early would strand the rest of the audience.
// PRE: input.ArticleID and input.Title are non-empty
// POST: marker set iff no subscribers were found or at least one send succeeded
// INVARIANT: the marker is checked before the lock; the lock is always released
func (d *Dispatcher) Dispatch(ctx context.Context, input DispatchInput) (newsletter.DispatchResult, error) {
	ctx = context.WithoutCancel(ctx)
	if input.ArticleID == "" {
		return newsletter.DispatchResult{}, newsletter.ErrEmptyArticleID
	}
	if input.Title == "" {
		return newsletter.DispatchResult{}, newsletter.ErrEmptyTitle
	}
	start := time.Now()
	res, err := d.dispatch(ctx, input)
	if err == nil {
		metrics.IncDispatch(string(res.Status))
		metrics.AddRecipients(res.Sent, res.Failed)
		metrics.ObserveDispatchDuration(time.Since(start))
	} else {
		metrics.IncDispatch("error")
	}
	return res, err
}

func (d *Dispatcher) dispatch(ctx context.Context, input DispatchInput) (newsletter.DispatchResult, error) {
	key := newsletter.MarkerKey(input.ArticleID)
	result := newsletter.DispatchResult{ArticleID: input.ArticleID}

	sent, err := d.deps.Markers.Has(ctx, key)
	if err != nil {
		slog.Warn("newsletter_marker_read_failed", "article_id", input.ArticleID, "error", err)
	}
	if sent {
		slog.Info("newsletter_already_sent", "article_id", input.ArticleID)
		result.Status = newsletter.StatusAlreadySent
		return result, nil
	}

	if !d.tryLock(input.ArticleID) {
		slog.Info("newsletter_in_progress", "article_id", input.ArticleID)
		result.Status = newsletter.StatusInProgress
		return result, nil
	}
	defer d.unlock(input.ArticleID)

	subs, err := d.deps.Subscribers.List(ctx)
	if err != nil {
		// Fetch failure is reported as an empty audience.
		slog.Error("newsletter_subscriber_fetch_failed", "article_id", input.ArticleID, "error", err)
		subs = nil
	}
	recipients := subscriber.UniqueEmails(subs)
	if len(recipients) == 0 {
		d.mark(ctx, key, input.ArticleID)
		slog.Info("newsletter_no_subscribers", "article_id", input.ArticleID)
		result.Status = newsletter.StatusNoSubscribers
		return result, nil
	}

	html := newsletter.RenderArticleEmail(input.Title, input.ImageURL, input.ArticleID, d.deps.SiteURL)
	subject := newsletter.Subject(input.Title)
	result.Total = len(recipients)

	batches := newsletter.Batches(recipients, d.deps.BatchSize)
	var ok, failed atomic.Int64
	for i, batch := range batches {
		if i > 0 {
			if err := d.deps.Sleep(ctx, d.deps.BatchPause); err != nil {
				remaining := 0
				for _, b := range batches[i:] {
					remaining += len(b)
				}
				failed.Add(int64(remaining))
				slog.Warn("newsletter_dispatch_interrupted", "article_id", input.ArticleID, "batch", i, "skipped", remaining, "error", err)
				break
			}
		}
		d.sendBatch(ctx, batch, subject, html, &ok, &failed)
		slog.Debug("newsletter_batch_done", "article_id", input.ArticleID, "batch", i+1, "of", len(batches))
	}

	result.Sent = int(ok.Load())
	result.Failed = int(failed.Load())
	result.Status = newsletter.StatusSent
	if result.Sent > 0 {
		d.mark(ctx, key, input.ArticleID)
	}
	slog.Info("newsletter_dispatch_complete",
		"article_id", input.ArticleID,
		"sent", result.Sent,
		"failed", result.Failed,
		"total", result.Total,
	)
	return result, nil
}

// sendBatch issues one send per recipient concurrently and waits for all of
// them. Failures are counted, never returned to the group.
func (d *Dispatcher) sendBatch(ctx context.Context, batch []string, subject, html string, ok, failed *atomic.Int64) {
	var g errgroup.Group
	for _, to := range batch {
		g.Go(func() error {
			_, err := d.deps.Sender.Send(ctx, email.SendRequest{
				To:       []string{to},
				From:     d.deps.From,
				FromName: d.deps.FromName,
				ReplyTo:  d.deps.ReplyTo,
				Subject:  subject,
				HTML:     html,
			})
			if err != nil {
				failed.Add(1)
				slog.Warn("newsletter_send_failed", "to", to, "error", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) mark(ctx context.Context, key, articleID string) {
	if err := d.deps.Markers.Set(ctx, key, "1"); err != nil {
		slog.Error("newsletter_marker_write_failed", "article_id", articleID, "error", err)
	}
}
