package httpapi

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"wellness-backend-go/internal/config"
	"wellness-backend-go/internal/models"
	"wellness-backend-go/internal/services"
)

type Server struct {
	DB        *sqlx.DB
	Config    config.Config
	Tokens    services.TokenService
	Revoker   services.TokenRevoker
	Events    *services.EventHub
	Log       *log.Logger
	Location  *time.Location
	StartedAt time.Time
	// Now is the request clock; tests pin it.
	Now func() time.Time
}

func NewServer(db *sqlx.DB, cfg config.Config, revoker services.TokenRevoker, hub *services.EventHub, logger *log.Logger) *Server {
	s := &Server{
		DB:        db,
		Config:    cfg,
		Revoker:   revoker,
		Events:    hub,
		Log:       logger,
		Location:  cfg.Location(),
		StartedAt: time.Now(),
		Now:       time.Now,
	}
	s.Tokens = services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
		Now:        func() time.Time { return s.Now() },
	}
	return s
}

func (s *Server) now() time.Time {
	return s.Now().UTC()
}

// today is the current calendar day in the configured zone.
func (s *Server) today() models.Date {
	return models.DateOf(s.Now().In(s.Location))
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(s.Log))
	r.Use(chimw.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.Health)

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", s.Register)
		api.Post("/login", s.Login)
		api.Post("/refresh", s.Refresh)
		api.Get("/ws", s.EventsSocket)

		api.Group(func(auth chi.Router) {
			auth.Use(WithAuth(s.Tokens, s.Revoker))

			auth.Post("/logout", s.Logout)
			auth.Get("/user", s.CurrentUser)
			auth.Patch("/user", s.UpdateProfile)
			auth.Put("/user/password", s.ChangePassword)
			auth.Delete("/user", s.DeleteAccount)

			auth.Get("/moods/today", s.TodayMood)
			auth.Get("/moods", s.ListMoods)
			auth.Post("/moods", s.RecordMood)

			auth.Route("/habits", func(habits chi.Router) {
				habits.Get("/", s.ListHabits)
				habits.Post("/", s.CreateHabit)
				habits.Post("/{habitId}/toggle", s.ToggleHabit)
				habits.Get("/{habitId}/logs", s.HabitLogs)
				habits.Put("/{habitId}", s.UpdateHabit)
				habits.Patch("/{habitId}", s.UpdateHabit)
				habits.Delete("/{habitId}", s.DeleteHabit)
			})
			auth.Get("/habit-logs/today", s.TodayHabits)

			auth.Route("/journal", func(journal chi.Router) {
				journal.Get("/", s.ListJournal)
				journal.Post("/", s.CreateJournalEntry)
				journal.Get("/{entryId}", s.GetJournalEntry)
				journal.Put("/{entryId}", s.UpdateJournalEntry)
				journal.Patch("/{entryId}", s.UpdateJournalEntry)
				journal.Delete("/{entryId}", s.DeleteJournalEntry)
			})

			auth.Route("/statistics", func(stats chi.Router) {
				stats.Get("/mood-chart", s.MoodChart)
				stats.Get("/habits", s.HabitStats)
				stats.Get("/summary", s.MonthlySummary)
			})

			auth.Get("/dashboard", s.Dashboard)
		})
	})
	return r
}
