package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"billionsgym/internal/adapters/http/middleware"
	"billionsgym/internal/adapters/http/perf"
	accountStore "billionsgym/internal/adapters/storage/account"
	bookingStore "billionsgym/internal/adapters/storage/booking"
	notificationStore "billionsgym/internal/adapters/storage/notification"
	outboxStore "billionsgym/internal/adapters/storage/outbox"
	"billionsgym/internal/adapters/storage/trainerschedule"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore      accountStore.Store
	ScheduleStore     trainerschedule.Store
	BookingStore      bookingStore.Store
	NotificationStore notificationStore.Store
	OutboxStore       outboxStore.Store // optional; without it no email is queued
}

// Options configures the middleware chain and outbound links.
type Options struct {
	CSRFKey            []byte
	Production         bool
	AllowedOrigins     []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	SlowRequest        time.Duration
	PublicURL          string // base for links in emails, e.g. https://pt.billions.vn
	EmailFrom          string
}

// ErrInvalidCSRFKey is returned for a CSRF key that is not 32 hex-encoded bytes.
var ErrInvalidCSRFKey = errors.New("CSRF key must be 64 hex characters (32 bytes)")

// LoadCSRFKey decodes a hex CSRF secret. Production requires one; in development a
// random key is generated per startup.
func LoadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, ErrInvalidCSRFKey
		}
		return key, nil
	}
	if production {
		return nil, errors.New("CSRF key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_generated", "reason", "no key configured; form sessions will not survive restart")
	return key, nil
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global rate limiter (set by NewMux, stopped by Close)
var limiter *middleware.RateLimiter

// publicURL prefixes links sent in emails.
var publicURL string

// emailFromAddress is the From of queued emails.
var emailFromAddress string

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, collector *perf.Collector, opts Options) http.Handler {
	stores = s
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	publicURL = strings.TrimRight(opts.PublicURL, "/")
	emailFromAddress = opts.EmailFrom
	middleware.SecureCookies = opts.Production

	mux := http.NewServeMux()
	registerRoutes(mux)

	perSecond := opts.RateLimitPerSecond
	if perSecond <= 0 {
		perSecond = 10
	}
	if limiter != nil {
		limiter.Stop()
	}
	limiter = middleware.NewRateLimiter(perSecond, opts.RateLimitBurst)

	// Apply middleware: Timing -> CORS -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(middleware.RecordRoute(mux),
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.Production, trustedOrigins(opts.AllowedOrigins)),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Timing(collector, opts.SlowRequest),
	)
}

// Close releases background resources started by NewMux.
func Close() {
	if limiter != nil {
		limiter.Stop()
	}
}

// trustedOrigins converts CORS origins into the host[:port] form gorilla/csrf expects.
func trustedOrigins(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("POST /auth/login", handleLogin)
	mux.HandleFunc("POST /auth/logout", handleLogout)

	mux.HandleFunc("GET /trainer-schedule/{trainerId}", handleGetTrainerSchedule)
	mux.HandleFunc("PUT /trainer-schedule/{trainerId}", handleReplaceTrainerSchedule)
	mux.HandleFunc("GET /trainers/{trainerId}/availability", handleAvailabilityPage)

	mux.HandleFunc("GET /notifications", handleListNotifications)
	mux.HandleFunc("POST /notifications/{id}/read", handleMarkNotificationRead)

	mux.HandleFunc("POST /admin/accounts", handleCreateAccount)
	mux.HandleFunc("POST /admin/bookings", handleCreateBooking)
	mux.HandleFunc("GET /admin/perf", handleAdminPerf)
}
