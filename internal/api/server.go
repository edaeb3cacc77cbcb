// Package api provides the Vigor HTTP server: tracker CRUD, progress and
// achievement reads, the event ledger, and goal/notification endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vigor-app/vigor/internal/app/goals"
	"github.com/vigor-app/vigor/internal/app/notify"
	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/app/tracker"
	"github.com/vigor-app/vigor/internal/health"
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

// userHeader carries the authenticated user's ID. Session resolution
// happens upstream; by the time a request lands here the ID is trusted.
const userHeader = "X-Vigor-User"

// Server is the Vigor HTTP API server.
type Server struct {
	db             *sqlite.DB
	coord          *progression.Coordinator
	tracker        *tracker.Service
	goals          *goals.Service
	notify         *notify.Service
	health         *health.Checker
	corsOrigins    []string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(db *sqlite.DB, coord *progression.Coordinator, trk *tracker.Service) *Server {
	return &Server{db: db, coord: coord, tracker: trk, corsOrigins: []string{"*"}}
}

// SetCORSOrigins replaces the allowed CORS origins.
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.corsOrigins = origins
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetGoals attaches the weekly-goal service.
func (s *Server) SetGoals(g *goals.Service) { s.goals = g }

// SetNotify attaches the notification service.
func (s *Server) SetNotify(n *notify.Service) { s.notify = n }

// SetHealth attaches the health checker for /health reporting.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Tasks
		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Delete("/tasks/{id}", s.handleArchiveTask)
		r.Post("/tasks/{id}/complete", s.handleCompleteTask)
		r.Post("/tasks/{id}/uncomplete", s.handleUncompleteTask)
		r.Get("/tasks/{id}/completions", s.handleListCompletions)
		r.Get("/tasks/{id}/streak", s.handleTaskStreak)

		// Foods
		r.Post("/foods", s.handleLogFood)
		r.Get("/foods", s.handleListFoods)
		r.Delete("/foods/{id}", s.handleDeleteFood)

		// Workouts
		r.Post("/workouts", s.handleLogWorkout)
		r.Get("/workouts", s.handleListWorkouts)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		// Progress & achievements
		r.Get("/progress", s.handleProgress)
		r.Get("/achievements", s.handleAchievements)
		r.Post("/achievements/{id}/claim", s.handleClaimAchievement)

		// Event ledger
		r.Post("/events", s.handleSubmitEvent)
		r.Get("/events", s.handleListEvents)
		r.Get("/events/{token}", s.handleGetEvent)
		r.Post("/events/{token}/reverse", s.handleReverseEvent)

		// Weekly goals
		r.Get("/goals", s.handleGoals)

		// Notifications
		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/shown", s.handleNotificationShown)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// handleHealth reports check statuses, 503 when any check is failing.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	statuses := s.health.Statuses()
	code := http.StatusOK
	for _, st := range statuses {
		if !st.Healthy {
			code = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, map[string]interface{}{
		"status": map[bool]string{true: "ok", false: "degraded"}[code == http.StatusOK],
		"checks": statuses,
	})
}

// userID extracts the user from the request header, "" if absent.
func userID(r *http.Request) string {
	return r.Header.Get(userHeader)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the configured origins. A "*"
// entry allows any origin; otherwise the request origin is echoed back
// only when it is on the list.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowOrigin(r.Header.Get("Origin")))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+userHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return ""
}

// Version is set from the build version by the daemon.
var Version = "dev"
