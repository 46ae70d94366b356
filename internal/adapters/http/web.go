package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"dietwithdee/internal/adapters/email"
	"dietwithdee/internal/adapters/http/middleware"
	"dietwithdee/internal/adapters/http/perf"
	"dietwithdee/internal/adapters/metrics"
	"dietwithdee/internal/adapters/objectstore"
	accountStore "dietwithdee/internal/adapters/storage/account"
	articleStore "dietwithdee/internal/adapters/storage/article"
	auditStore "dietwithdee/internal/adapters/storage/audit"
	profileLogStore "dietwithdee/internal/adapters/storage/profilelog"
	subscriberStore "dietwithdee/internal/adapters/storage/subscriber"
	"dietwithdee/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	ArticleStore    articleStore.Store
	SubscriberStore subscriberStore.Store
	ProfileLogStore profileLogStore.Store
	AuditStore      auditStore.Store // nil disables the activity log
}

// Services holds the non-storage collaborators.
type Services struct {
	Images     objectstore.Store // nil disables cover uploads
	Newsletter orchestrators.NewsletterDispatcher
	Mailer     email.Sender // transactional sender behind /api/send-email
}

// Options configures NewMux.
type Options struct {
	StaticDir          string
	Production         bool
	CSRFKey            string
	SiteURL            string
	ConsultationEmail  string
	EmailFrom          string
	ReplyTo            string
	ProxyAllowedOrigin string
	SlowRequest        time.Duration

	// Uploads serves locally stored images at UploadsPrefix when set.
	Uploads       http.Handler
	UploadsPrefix string
}

// loadCSRFKey accepts 64 hex characters or at least 32 raw bytes. In
// development an empty key yields a random one per startup.
func loadCSRFKey(raw string, production bool) ([]byte, error) {
	if raw != "" {
		if key, err := hex.DecodeString(raw); err == nil && len(key) == 32 {
			return key, nil
		}
		if len(raw) >= 32 {
			return []byte(raw[:32]), nil
		}
		return nil, errors.New("CSRF key must be 64 hex characters or at least 32 bytes")
	}
	if production {
		return nil, errors.New("CSRF key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_random", "detail", "sessions won't survive restart; set DIETWITHDEE_CSRF_KEY")
	return key, nil
}

// trustedOrigins lists hosts allowed to post forms: the site itself plus
// local development servers.
func trustedOrigins(siteURL string) []string {
	hosts := []string{"localhost:8080", "127.0.0.1:8080"}
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global collaborators (set by NewMux)
var services *Services

// Global options (set by NewMux)
var options Options

// Global session store instance
var sessions *middleware.SessionStore

// Per-IP limiter shared by every route (set by NewMux)
var limiter *middleware.RateLimiter

// visitorIdle is how long a quiet IP keeps its rate-limit bucket.
const visitorIdle = 5 * time.Minute

// Sweep drops expired admin sessions and idle rate-limit buckets. It
// reports what is left of each.
func Sweep() (liveSessions, trackedIPs int) {
	if sessions != nil {
		liveSessions = sessions.Sweep()
	}
	if limiter != nil {
		trackedIPs = limiter.Sweep(visitorIdle)
	}
	return liveSessions, trackedIPs
}

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires HTTP handlers for the app.
// PRE: s and svc are non-nil
// POST: Returns the full middleware-wrapped handler
func NewMux(o Options, s *Stores, svc *Services, collector *perf.Collector) (http.Handler, error) {
	csrfKey, err := loadCSRFKey(o.CSRFKey, o.Production)
	if err != nil {
		return nil, err
	}

	options = o
	stores = s
	services = svc
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = o.Production

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter = middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Request order: Metrics -> Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, o.Production, trustedOrigins(o.SiteURL)),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, o.SlowRequest),
		metrics.Middleware,
	), nil
}

func registerRoutes(mux *http.ServeMux) {
	// Admin session
	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)
	mux.HandleFunc("GET /api/me", handleMe)
	mux.HandleFunc("POST /api/admin/password", handleChangePassword)

	// Articles
	mux.HandleFunc("GET /api/articles", handleListArticles)
	mux.HandleFunc("GET /api/articles/{id}", handleGetArticle)
	mux.HandleFunc("/api/admin/articles", handleAdminArticles)
	mux.HandleFunc("/api/admin/articles/{id}", handleAdminArticle)
	mux.HandleFunc("POST /api/admin/articles/{id}/newsletter", handleResendNewsletter)

	// Newsletter signup
	mux.HandleFunc("POST /api/subscribe", handleSubscribe)
	mux.HandleFunc("GET /api/admin/subscribers", handleAdminSubscribers)

	// Calculator and consultation
	mux.HandleFunc("POST /api/calculator", handleCalculator)
	mux.HandleFunc("POST /api/consultation/compose", handleComposeConsultation)
	mux.Handle("/api/send-email", middleware.CORS(options.ProxyAllowedOrigin)(http.HandlerFunc(handleSendEmail)))

	// Visitor state
	mux.HandleFunc("GET /api/popup", handlePopup)
	mux.HandleFunc("POST /api/popup/dismiss", handlePopupDismiss)
	mux.HandleFunc("POST /api/onboarding/dismiss", handleOnboardingDismiss)
	mux.HandleFunc("GET /api/visitor", handleVisitor)
	mux.HandleFunc("/api/profile/{userID}/logs", handleProfileLogs)

	// Operations
	mux.HandleFunc("GET /api/admin/perf", handleAdminPerf)
	mux.HandleFunc("GET /api/admin/audit", handleAdminAudit)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", handleHealth)

	if options.Uploads != nil && options.UploadsPrefix != "" {
		mux.Handle("GET "+options.UploadsPrefix, options.Uploads)
	}
	if options.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(options.StaticDir)))
	}
}
