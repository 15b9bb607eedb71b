package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := s.ledger.ListTransactions(r.Context(), currentUser(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if limit := parseLimit(r, 0); limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	NewJSONResponse().Data(map[string]any{"transactions": s.present.transactions(txs)}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.readTransaction(w, r)
	if !ok {
		return
	}
	created, err := s.ledger.CreateTransaction(r.Context(), currentUser(r), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Data(s.present.transaction(created)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.readTransaction(w, r)
	if !ok {
		return
	}
	t.ID = r.PathValue("id")
	updated, err := s.ledger.UpdateTransaction(r.Context(), currentUser(r), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(s.present.transaction(updated)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) readTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return core.Transaction{}, false
	}
	t, err := req.toTransaction(s.location())
	if err != nil {
		s.writeError(w, r, err)
		return core.Transaction{}, false
	}
	return t, true
}

func (s *Server) location() *time.Location {
	return s.now().Location()
}
