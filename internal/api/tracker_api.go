package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vigor-app/vigor/internal/domain"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	var task domain.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task.UserID = user
	created, err := s.tracker.CreateTask(task)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	tasks, err := s.tracker.Tasks(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tracker.Task(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleArchiveTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ArchiveTask(userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// completeRequest optionally back-dates a completion. Zero means now.
type completeRequest struct {
	At time.Time `json:"at,omitempty"`
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	result, err := s.tracker.CompleteTask(userID(r), chi.URLParam(r, "id"), at)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUncompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	result, err := s.tracker.UncompleteTask(userID(r), chi.URLParam(r, "id"), at)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	completions, err := s.tracker.Completions(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"completions": completions})
}

func (s *Server) handleTaskStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.tracker.Streak(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

// ─── Foods ──────────────────────────────────────────────────────────────────

func (s *Server) handleLogFood(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	var food domain.Food
	if err := json.NewDecoder(r.Body).Decode(&food); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	food.UserID = user
	result, err := s.tracker.LogFood(food)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListFoods(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	foods, err := s.tracker.Foods(userID(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"foods": foods})
}

func (s *Server) handleDeleteFood(w http.ResponseWriter, r *http.Request) {
	result, err := s.tracker.DeleteFood(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ─── Workouts ───────────────────────────────────────────────────────────────

func (s *Server) handleLogWorkout(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	var workout domain.Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	workout.UserID = user
	result, err := s.tracker.LogWorkout(workout)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	workouts, err := s.tracker.Workouts(userID(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"workouts": workouts})
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	result, err := s.tracker.DeleteWorkout(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
