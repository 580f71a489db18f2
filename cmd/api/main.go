package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"authcore/internal/auth"
	"authcore/internal/config"
	"authcore/internal/httpx"
	"authcore/internal/session"
	"authcore/internal/store"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionSweepInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.Fatalf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	var (
		dbPool   *pgxpool.Pool
		sessions session.Store
		users    auth.UserRepository
	)
	if cfg.DatabaseDSN != "" {
		dbPool = mustOpenDB(cfg.DatabaseDSN)
		defer dbPool.Close()

		sessions, err = store.NewSessionPG(dbPool, cfg.SecretKey)
		if err != nil {
			log.Fatalf("session store error: %v", err)
		}
		users = store.NewUserPG(dbPool)
	} else {
		log.Println("no DB_DSN configured, using in-memory stores")
		sessions, err = session.NewMemoryStore(cfg.SecretKey)
		if err != nil {
			log.Fatalf("session store error: %v", err)
		}
		users = store.NewUserMemory()
	}

	manager := session.NewManager(sessions, session.ManagerOptions{
		TTL:         cfg.SessionTTL,
		RememberTTL: cfg.RememberTTL,
	})
	svc := auth.NewService(users, manager, auth.DefaultPasswordPolicy())
	authHandler := auth.NewHandler(svc, manager, cfg.LoginPath, cfg.AppPath, cfg.AllowedRedirectHosts)

	csrf, err := httpx.NewCSRF(cfg.SecretKey, httpx.CSRFOptions{
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		log.Fatalf("csrf error: %v", err)
	}

	rateLimit := httpx.NewRateLimit(httpx.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		BurstSize:         cfg.RateLimitBurst,
		ExemptPaths:       []string{"/healthz", "/readyz"},
		Rules: []httpx.RateLimitRule{
			// Credential endpoints get a tighter budget than page traffic.
			{Requests: 10, Window: time.Minute, Paths: []string{cfg.LoginPath, "/register"}},
		},
	})

	securityHeaders := httpx.SecurityHeaders(httpx.SecurityHeadersConfig{
		EnableHSTS:            cfg.EnableHSTS,
		ContentSecurityPolicy: cfg.ContentSecurityPolicy,
	})

	router := http.NewServeMux()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbPool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := dbPool.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	anonymousOnly := auth.RequireAnonymous(cfg.AppPath)
	authenticated := auth.RequireAuthenticated(cfg.LoginPath)

	router.Handle(cfg.LoginPath, anonymousOnly(postOnly(authHandler.Login)))
	router.Handle("/register", anonymousOnly(postOnly(authHandler.Register)))
	router.Handle("/logout", postOnly(authHandler.Logout))
	router.HandleFunc("/me", authHandler.Me)
	router.Handle("/settings/password", authenticated(postOnly(authHandler.ChangePassword)))

	router.Handle(cfg.AppPath, authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})))

	var handler http.Handler = router
	handler = httpx.SessionAuth(sessions, users)(handler)
	handler = csrf.Middleware(handler)
	handler = rateLimit.Middleware(handler)
	handler = securityHeaders(handler)
	handler = httpx.RecoveryMiddleware(handler)
	handler = httpx.AccessLogMiddleware(handler)
	handler = httpx.RequestIDMiddleware(handler)

	go sweepSessions(sessions)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func postOnly(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}

// sweepSessions deletes expired and revoked session rows on an hourly cadence.
func sweepSessions(sessions session.Store) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		deleted, err := sessions.CleanupExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("session sweep error=%v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("session sweep deleted=%d", deleted)
		}
	}
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
