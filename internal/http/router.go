package http

import (
	"log/slog"
	"net/http"
	"time"

	"reread/internal/auth"
	"reread/internal/config"
	"reread/internal/daily"
	"reread/internal/highlight"
	"reread/internal/http/handler"
	mw "reread/internal/http/middleware"
	"reread/internal/jobs"
	"reread/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Deps struct {
	DB         *gorm.DB
	JWT        *auth.JWT
	Reconciler *daily.Reconciler
	Gatherer   prometheus.Gatherer
	Log        *slog.Logger
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLog(d.Log))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: d.DB}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	now := func() time.Time { return time.Now().In(cfg.Location) }

	hlSvc := &highlight.Service{DB: d.DB, MaxSyncAttempts: cfg.SyncMaxAttempts}
	hl := &handler.HighlightHandler{Svc: hlSvc, Schedule: d.Reconciler, Now: now, Log: d.Log}

	r.Route("/highlights", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Post("/", hl.Create)
		r.Get("/", hl.List)
		r.Get("/tags", hl.Tags)

		r.Get("/{id}", hl.Get)
		r.Patch("/{id}", hl.Update)
		r.Delete("/{id}", hl.Delete)
		r.Post("/{id}/archive", hl.Archive)
		r.Post("/{id}/restore", hl.Restore)
	})

	dh := &handler.DailyHandler{Svc: d.Reconciler, Now: now}
	r.Route("/daily", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Get("/", dh.Month)
		r.Post("/assign", dh.Assign)
		r.Post("/redistribute", dh.Redistribute)
		r.Post("/cleanup", dh.Cleanup)
		r.Post("/reset", dh.Reset)
		r.Post("/marks/backfill", dh.BackfillMarks)
		r.Put("/assignments/{id}/rating", dh.Rate)
	})

	sh := &handler.SyncHandler{Queue: &jobs.Repo{DB: d.DB}}
	r.Route("/sync", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Get("/failed", sh.Failed)
		r.Post("/{id}/retry", sh.Retry)
	})

	return r
}
