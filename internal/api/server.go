package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/appointments"
	"github.com/terra-clan/health-assistant/internal/assessment"
	"github.com/terra-clan/health-assistant/internal/config"
	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/voice"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// Catalog is the read side of the questionnaire catalog
type Catalog interface {
	VitalsQuestions() []wizard.Question[models.VitalValue]
	IssuesQuestions() []wizard.Question[string]
	Recommendations() models.RecommendationTable
	Symptoms() []models.Symptom
}

// Services bundles the backends the API serves
type Services struct {
	Sessions     assessment.Manager
	Catalog      Catalog
	Appointments *appointments.Service
	Analyzer     analysis.Analyzer
	Transcriber  voice.Transcriber
}

// Server represents the HTTP API server
type Server struct {
	config   *config.Config
	router   *chi.Mux
	services Services
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, services Services) *Server {
	if services.Transcriber == nil {
		services.Transcriber = voice.Unavailable{}
	}

	s := &Server{
		config:   cfg,
		services: services,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		// The websocket outlives any request timeout
		if s.config.Assistant.Enabled {
			r.Get("/assistant/ws", s.handleAssistantWS)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/vitals", s.handleVitalsCatalog)
				r.Get("/issues", s.handleIssuesCatalog)
				r.Get("/recommendations", s.handleRecommendations)
				r.Get("/symptoms", s.handleSymptoms)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Post("/", s.handleCreateSession)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSession)
					r.Delete("/", s.handleDeleteSession)
					r.Post("/start", s.handleStartSession)
					r.Post("/answers", s.handleAnswer)
					r.Post("/reset", s.handleResetSession)
					r.Get("/dashboard", s.handleDashboard)
					r.Put("/description", s.handleSetDescription)
					r.Post("/symptoms", s.handleSelectSymptom)
					r.Post("/analysis", s.handleAnalyze)
					r.Delete("/analysis", s.handleCancelAnalysis)
				})
			})

			r.Post("/voice/transcribe", s.handleTranscribe)

			r.Route("/doctors", func(r chi.Router) {
				r.Get("/", s.handleSearchDoctors)
				r.Get("/{id}", s.handleGetDoctor)
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Get("/slots", s.handleTimeSlots)
				r.Post("/", s.handleBook)
				r.Get("/{id}", s.handleGetBooking)
				r.Delete("/{id}", s.handleCancelBooking)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
