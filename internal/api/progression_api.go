package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vigor-app/vigor/internal/domain"
)

// ─── Progress & Achievements ────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	progress, err := s.db.GetProgress(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	progress, err := s.db.GetProgress(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type achievementView struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Category  string `json:"category"`
		Icon      string `json:"icon"`
		RewardXP  int64  `json:"reward_xp"`
		Dimension string `json:"dimension"`
		Threshold int64  `json:"threshold"`
		Status    string `json:"status"` // locked, pending, claimed
	}

	defs := s.coord.Achievements().Definitions()
	out := make([]achievementView, len(defs))
	for i, def := range defs {
		status := "locked"
		for _, id := range progress.PendingAchievements {
			if id == def.ID {
				status = "pending"
			}
		}
		for _, id := range progress.ClaimedAchievements {
			if id == def.ID {
				status = "claimed"
			}
		}
		out[i] = achievementView{
			ID: def.ID, Name: def.Name, Category: string(def.Category),
			Icon: def.Icon, RewardXP: def.RewardXP,
			Dimension: def.Dimension, Threshold: def.Threshold,
			Status: status,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": out})
}

func (s *Server) handleClaimAchievement(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	id := chi.URLParam(r, "id")
	if _, ok := s.coord.Achievements().ByID(id); !ok {
		writeError(w, http.StatusNotFound, domain.ErrAchievementNotFound.Error())
		return
	}
	progress, err := s.db.ClaimAchievement(user, id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// ─── Event Ledger ───────────────────────────────────────────────────────────

// eventRequest is the wire shape of a submitted action event. Payload is
// decoded by source into its typed variant — the single place raw JSON
// meets the tagged union.
type eventRequest struct {
	Token      string             `json:"token,omitempty"`
	Source     domain.EventSource `json:"source"`
	OccurredAt time.Time          `json:"occurred_at,omitempty"`
	Payload    json.RawMessage    `json:"payload"`
}

func decodePayload(source domain.EventSource, raw json.RawMessage) (domain.Payload, error) {
	switch source {
	case domain.SourceTaskCompleted:
		var p domain.TaskCompletedPayload
		return p, json.Unmarshal(raw, &p)
	case domain.SourceFoodLogged:
		var p domain.FoodLoggedPayload
		return p, json.Unmarshal(raw, &p)
	case domain.SourceWorkoutLogged:
		var p domain.WorkoutLoggedPayload
		return p, json.Unmarshal(raw, &p)
	case domain.SourceGoalCompleted:
		var p domain.GoalCompletedPayload
		return p, json.Unmarshal(raw, &p)
	default:
		return nil, domain.ErrUnknownSource
	}
}

func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, err := decodePayload(req.Source, req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Token == "" {
		req.Token = uuid.NewString()
	}

	result, err := s.coord.Process(domain.ActionEvent{
		Token:      req.Token,
		UserID:     user,
		OccurredAt: req.OccurredAt,
		Payload:    payload,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		from, _ = time.Parse(time.RFC3339, v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, _ = time.Parse(time.RFC3339, v)
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.EventStatus(v)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown event status "+v)
			return
		}
		events, err := s.db.ListEventsByStatus(user, status, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
		return
	}

	events, err := s.db.ListEvents(user, from, to, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	token := chi.URLParam(r, "token")
	entry, err := s.db.GetEventLog(token)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if user != "" && entry.UserID != user {
		writeError(w, http.StatusNotFound, domain.ErrEventNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleReverseEvent(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	token := chi.URLParam(r, "token")

	// Only the owner may undo an event; a foreign token reads as absent.
	entry, err := s.db.GetEventLog(token)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if entry.UserID != user {
		writeError(w, http.StatusNotFound, domain.ErrEventNotFound.Error())
		return
	}

	result, err := s.coord.Reverse(token)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ─── Goals ──────────────────────────────────────────────────────────────────

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	if s.goals == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"goals": []domain.Goal{}})
		return
	}
	if r.URL.Query().Get("all") != "" {
		history, err := s.goals.History(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"goals": history})
		return
	}
	active, err := s.goals.EnsureWeeklyGoals(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": active})
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}
	if s.notify == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": []domain.Notification{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	pending, err := s.notify.Pending(user, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": pending})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	if s.notify == nil {
		writeError(w, http.StatusNotFound, "notifications disabled")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.notify.MarkShown(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ─── Error mapping ──────────────────────────────────────────────────────────

// statusFor translates domain errors into HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrFoodNotFound),
		errors.Is(err, domain.ErrWorkoutNotFound),
		errors.Is(err, domain.ErrGoalNotFound),
		errors.Is(err, domain.ErrAchievementNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateToken),
		errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotReversible),
		errors.Is(err, domain.ErrNotCompleted),
		errors.Is(err, domain.ErrTaskArchived),
		errors.Is(err, domain.ErrAchievementNotPending):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMissingToken),
		errors.Is(err, domain.ErrMissingUser),
		errors.Is(err, domain.ErrMissingPayload),
		errors.Is(err, domain.ErrUnknownSource),
		errors.Is(err, domain.ErrInvalidRule),
		errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrNegativeBaseXP):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
