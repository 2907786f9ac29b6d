package http

import (
	"net/http"
	"time"

	"moneybook/internal/core"
	"moneybook/internal/services"
)

type goalResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  float64         `json:"target_amount"`
	CurrentAmount float64         `json:"current_amount"`
	Remaining     float64         `json:"remaining"`
	Progress      float64         `json:"progress"`
	Deadline      core.Date       `json:"deadline"`
	Description   string          `json:"description,omitempty"`
	Status        core.GoalStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.Dollars(),
		CurrentAmount: g.CurrentAmount.Dollars(),
		Remaining:     g.Remaining().Dollars(),
		Progress:      g.Progress(),
		Deadline:      g.Deadline,
		Description:   g.Description,
		Status:        g.Status,
		CreatedAt:     g.CreatedAt,
	}
}

// goalRequest is shared by create and update. On update, absent fields keep
// the stored value.
type goalRequest struct {
	Name          *string    `json:"name"`
	TargetAmount  amount     `json:"target_amount"`
	CurrentAmount amount     `json:"current_amount"`
	Deadline      *core.Date `json:"deadline"`
	Description   *string    `json:"description"`
}

func (req goalRequest) input(base core.Goal) services.GoalInput {
	in := services.GoalInput{
		Name:          base.Name,
		TargetAmount:  base.TargetAmount,
		CurrentAmount: base.CurrentAmount,
		Deadline:      base.Deadline,
		Description:   base.Description,
	}
	if req.Name != nil {
		in.Name = sanitizeInput(*req.Name)
	}
	if req.TargetAmount.set {
		in.TargetAmount = req.TargetAmount.Money
	}
	if req.CurrentAmount.set {
		in.CurrentAmount = req.CurrentAmount.Money
	}
	if req.Deadline != nil {
		in.Deadline = *req.Deadline
	}
	if req.Description != nil {
		in.Description = sanitizeInput(*req.Description)
	}
	return in
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goals, err := s.deps.Goals.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": out, "count": len(out)})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.deps.Goals.Create(r.Context(), uid, req.input(core.Goal{}))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalResponse(g))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.deps.Goals.Get(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	current, err := s.deps.Goals.Get(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.deps.Goals.Update(r.Context(), uid, id, req.input(current))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Goals.Delete(r.Context(), uid, id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
