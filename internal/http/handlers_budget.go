package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	at, err := parseInstant(r, s.now())
	if err != nil {
		ErrorResponse(http.StatusBadRequest, "at must be an RFC 3339 timestamp").Write(w)
		return
	}
	statuses, err := s.budgets.Budgets(r.Context(), currentUser(r), at)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"budgets": s.present.statuses(statuses)}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := s.readBudget(w, r)
	if !ok {
		return
	}
	created, err := s.ledger.CreateBudget(r.Context(), currentUser(r), b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).
		Header("Location", "/api/budgets/"+created.ID).
		Data(s.present.budget(created)).
		Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := s.readBudget(w, r)
	if !ok {
		return
	}
	b.ID = r.PathValue("id")
	updated, err := s.ledger.UpdateBudget(r.Context(), currentUser(r), b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(s.present.budget(updated)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteBudget(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	at, err := parseInstant(r, s.now())
	if err != nil {
		ErrorResponse(http.StatusBadRequest, "at must be an RFC 3339 timestamp").Write(w)
		return
	}
	u, err := s.budgets.Usage(r.Context(), currentUser(r), r.PathValue("id"), at)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(s.present.usage(u, nil)).Write(w)
}

func (s *Server) readBudget(w http.ResponseWriter, r *http.Request) (core.Budget, bool) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return core.Budget{}, false
	}
	b, err := req.toBudget()
	if err != nil {
		s.writeError(w, r, err)
		return core.Budget{}, false
	}
	return b, true
}
