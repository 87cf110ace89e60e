package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/ontop/internal/server/models"
)

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, publicMessage(status, err))
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "status": "unavailable", "backend": s.backend})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "backend": s.backend})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user": res.User})
}

type tasksRequest struct {
	Tasks []models.Task `json:"tasks"`
}

func (s *HTTPServer) saveTasks(w http.ResponseWriter, r *http.Request) {
	var req tasksRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.data.SaveTasks(r.Context(), userIDFrom(r.Context()), req.Tasks); err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"count": len(req.Tasks)})
}

func (s *HTTPServer) getTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.data.GetTasks(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *HTTPServer) saveFitness(w http.ResponseWriter, r *http.Request) {
	var p models.FitnessProfile
	if err := decodeJSON(w, r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.data.SaveFitness(r.Context(), userIDFrom(r.Context()), &p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *HTTPServer) getFitness(w http.ResponseWriter, r *http.Request) {
	p, err := s.data.GetFitness(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fitness": p})
}

func (s *HTTPServer) saveFinances(w http.ResponseWriter, r *http.Request) {
	var p models.FinanceProfile
	if err := decodeJSON(w, r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.data.SaveFinances(r.Context(), userIDFrom(r.Context()), &p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *HTTPServer) getFinances(w http.ResponseWriter, r *http.Request) {
	p, err := s.data.GetFinances(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"finances": p})
}

func (s *HTTPServer) export(w http.ResponseWriter, r *http.Request) {
	exp, err := s.data.Export(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": exp})
}

func (s *HTTPServer) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.data.DeleteAccount(r.Context(), userIDFrom(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "account deleted"})
}

func (s *HTTPServer) premiumStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.data.PremiumStatus(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"premium": st})
}

func (s *HTTPServer) backup(w http.ResponseWriter, r *http.Request) {
	res, err := s.data.Backup(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backup": res})
}

type adminPremiumRequest struct {
	UserID    int64      `json:"userId"`
	IsPremium bool       `json:"isPremium"`
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (s *HTTPServer) adminUpdatePremium(w http.ResponseWriter, r *http.Request) {
	var req adminPremiumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	upd := models.PremiumUpdate{IsPremium: req.IsPremium, Plan: req.Plan, ExpiresAt: req.ExpiresAt}
	if err := s.data.UpdatePremium(r.Context(), req.UserID, upd); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
