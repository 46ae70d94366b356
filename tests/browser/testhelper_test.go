//go:build browser

package browser_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"dietwithdee/internal/adapters/email"
	web "dietwithdee/internal/adapters/http"
	"dietwithdee/internal/adapters/http/perf"
	"dietwithdee/internal/adapters/objectstore"
	"dietwithdee/internal/adapters/storage"
	accountStore "dietwithdee/internal/adapters/storage/account"
	articleStore "dietwithdee/internal/adapters/storage/article"
	auditStore "dietwithdee/internal/adapters/storage/audit"
	markerStore "dietwithdee/internal/adapters/storage/marker"
	profileLogStore "dietwithdee/internal/adapters/storage/profilelog"
	subscriberStore "dietwithdee/internal/adapters/storage/subscriber"
	"dietwithdee/internal/application/orchestrators"
)

const (
	adminEmail    = "admin@test.com"
	adminPassword = "TestPass123!xyz"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	Sender  *email.NoopSender
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	dsn := filepath.Join(tmpDir, "test.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to init test DB: %v", err)
	}

	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(db),
		ArticleStore:    articleStore.NewSQLiteStore(db),
		SubscriberStore: subscriberStore.NewSQLiteStore(db),
		ProfileLogStore: profileLogStore.NewSQLiteStore(db),
		AuditStore:      auditStore.NewSQLiteStore(db),
	}

	ctx := context.Background()
	if _, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Email:    adminEmail,
		Password: adminPassword,
	}, orchestrators.SeedAdminDeps{AccountStore: stores.AccountStore}); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	images, err := objectstore.NewDiskStore(filepath.Join(tmpDir, "uploads"), objectstore.DefaultDiskURLPrefix)
	if err != nil {
		t.Fatalf("failed to create image store: %v", err)
	}
	sender := email.NewNoopSender()
	dispatcher := orchestrators.NewDispatcher(orchestrators.DispatcherDeps{
		Subscribers: stores.SubscriberStore,
		Markers:     markerStore.NewSQLiteStore(db),
		Sender:      sender,
		BatchPause:  time.Millisecond,
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	web.RateLimitPerSecond = 1000
	handler, err := web.NewMux(web.Options{
		CSRFKey:            strings.Repeat("t", 32),
		SiteURL:            baseURL,
		ConsultationEmail:  "dee@test.com",
		EmailFrom:          "Dee <dee@test.com>",
		ProxyAllowedOrigin: baseURL,
		Uploads:            images.Handler(),
		UploadsPrefix:      images.URLPrefix(),
	}, stores, &web.Services{
		Images:     images,
		Newsletter: dispatcher,
		Mailer:     sender,
	}, perf.NewCollector(1000))
	if err != nil {
		t.Fatalf("NewMux: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: handler,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		Sender:  sender,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage opens a tab on the site origin so fetch calls are same-origin.
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	if _, err := page.Goto(a.BaseURL + "/healthz"); err != nil {
		t.Fatalf("failed to open site: %v", err)
	}
	return page
}

// apiResult is a fetch outcome returned from the page.
type apiResult struct {
	Status int
	Body   any
}

// fetchJSON runs fetch inside the page and returns the status and parsed body.
func fetchJSON(t *testing.T, page playwright.Page, method, path string, body any) apiResult {
	t.Helper()
	payload := "null"
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		payload = string(b)
	}
	result, err := page.Evaluate(`async ([method, path, payload]) => {
		const init = {method, headers: {'Content-Type': 'application/json'}};
		if (payload !== 'null') init.body = payload;
		const r = await fetch(path, init);
		const text = await r.text();
		let parsed = null;
		try { parsed = JSON.parse(text); } catch (e) { parsed = text; }
		return {status: r.status, body: parsed};
	}`, []string{method, path, payload})
	if err != nil {
		t.Fatalf("fetch %s %s: %v", method, path, err)
	}
	m := result.(map[string]any)
	return apiResult{Status: toInt(m["status"]), Body: m["body"]}
}

// login signs in as the seeded admin through the JSON API.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	res := fetchJSON(t, page, "POST", "/api/login", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	})
	if res.Status != http.StatusOK {
		t.Fatalf("login status = %d: %v", res.Status, res.Body)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return -1
}
