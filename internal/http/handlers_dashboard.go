package http

import "net/http"

// handleSummary serves totals, the expense breakdown, recent activity and
// budget usage in one response.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	at, err := parseInstant(r, s.now())
	if err != nil {
		ErrorResponse(http.StatusBadRequest, "at must be an RFC 3339 timestamp").Write(w)
		return
	}
	d, err := s.budgets.Overview(r.Context(), currentUser(r), at)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(s.present.dashboard(d)).Write(w)
}
