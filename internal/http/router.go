package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SergejGorshkov/my-note/internal/auth"
	"github.com/SergejGorshkov/my-note/internal/config"
	"github.com/SergejGorshkov/my-note/internal/http/handler"
	mw "github.com/SergejGorshkov/my-note/internal/http/middleware"
	"github.com/SergejGorshkov/my-note/internal/note"
	"github.com/SergejGorshkov/my-note/internal/schedule"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc, Log: log}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.Get("/auth/confirm/{token}", ah.Confirm)

	ph := &handler.ProfileHandler{DB: db}
	r.Route("/me", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Get("/", ph.Get)
		r.Put("/", ph.Update)
	})

	noteSvc := &note.Service{DB: db}
	nh := &handler.NoteHandler{Svc: noteSvc}
	r.Route("/notes", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", nh.Create)
		r.Get("/", nh.List)
		r.Get("/tags", nh.Tags)

		r.Get("/{id}", nh.Get)
		r.Put("/{id}", nh.Update)
		r.Delete("/{id}", nh.Delete)

		r.Post("/{id}/images", nh.AddImage)
		r.Get("/{id}/images", nh.Images)
	})

	sh := &handler.ScheduleHandler{Repo: &schedule.Repo{DB: db}}
	r.Route("/schedules", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Get("/{task}", sh.Get)
		r.Put("/{task}", sh.Update)
	})

	return r
}
