package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	cats, ok := s.categoryCache.Get(userID)
	if !ok {
		var err error
		cats, err = s.ledger.ListCategories(r.Context(), userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.categoryCache.Set(userID, cats)
	}
	NewJSONResponse().Data(map[string]any{"categories": s.present.categories(cats)}).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := req.toCategory()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := currentUser(r)
	created, err := s.ledger.CreateCategory(r.Context(), userID, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.categoryCache.Delete(userID)
	NewJSONResponse().Status(http.StatusCreated).Data(s.present.categories([]core.Category{created})[0]).Write(w)
}
