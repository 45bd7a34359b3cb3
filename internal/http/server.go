// Package http serves the dashboard: server-rendered pages over the
// record store, aggregation functions and credential store. Handlers are
// explicit request/response: parse input, validate, call the store,
// render the result.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/auth"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/store"
	appweb "finboard/web"
)

// SessionCookie is the login session cookie name.
const SessionCookie = "finboard_session"

type Server struct {
	http.Server
	templates *template.Template
	records   *store.Store
	creds     *auth.Store
	sessions  *auth.SessionManager
	logger    *log.Logger

	rateLimiter *rateLimiter

	metrics struct {
		started      time.Time
		requests     atomic.Int64
		rowsAppended atomic.Int64
		imports      atomic.Int64
	}

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, records *store.Store, creds *auth.Store, sessions *auth.SessionManager, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: log.Middleware(logger)(mux),
		},
		records:     records,
		creds:       creds,
		sessions:    sessions,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}
	s.metrics.started = time.Now()

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(template.FuncMap{
		"usd": formatUSD,
		"pct": formatPercent,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err.Error(), log.FieldComponent, log.ComponentTemplate)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("/logout", s.withMiddleware(s.handleLogout))

	mux.HandleFunc("/", s.withMiddleware(s.requireUser(s.handleOverview)))
	mux.HandleFunc("/income-expenses", s.withMiddleware(s.requireUser(s.handleIncomeExpenses)))
	mux.HandleFunc("/categories", s.withMiddleware(s.requireUser(s.handleCategories)))
	mux.HandleFunc("/allocations", s.withMiddleware(s.requireUser(s.handleAllocations)))
	mux.HandleFunc("/invoices", s.withMiddleware(s.requireUser(s.handleInvoices)))
	mux.HandleFunc("/recurring", s.withMiddleware(s.requireUser(s.handleRecurring)))
	mux.HandleFunc("/entry", s.withMiddleware(s.requireUser(s.handleEntry)))
	mux.HandleFunc("/transactions", s.withMiddleware(s.requireUser(s.handleCreateTransaction)))
	mux.HandleFunc("/import", s.withMiddleware(s.requireUser(s.handleImport)))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.sessions != nil {
			s.sessions.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a page template; template failures become a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path, log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(), "template", name)
	}
}

// renderStatus is render with an explicit status code (validation replies).
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(), "template", name)
	}
}

// warningOf turns a load condition into the banner text for a page;
// degraded loads still render with an empty table.
func warningOf(errs ...error) string {
	for _, err := range errs {
		if err != nil {
			return "Some data could not be loaded: " + err.Error()
		}
	}
	return ""
}

// barWidth scales an amount against the largest in its group to a 2-100
// integer percent for the CSS bar charts.
func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents)
	if width < 2 { // ensure visibility for very small values
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func formatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

func formatUSD(m core.Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	dollars := cents / 100
	rem := cents % 100

	// Group the dollar digits by thousands.
	digits := []byte{}
	if dollars == 0 {
		digits = []byte("0")
	}
	for n := dollars; n > 0; n /= 10 {
		digits = append(digits, byte('0'+n%10))
	}
	var out []byte
	for i := len(digits) - 1; i >= 0; i-- {
		out = append(out, digits[i])
		if i > 0 && i%3 == 0 {
			out = append(out, ',')
		}
	}
	result := "$" + string(out) + "." + twoDigits(rem)
	if neg {
		return "-" + result
	}
	return result
}

func twoDigits(n int64) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
