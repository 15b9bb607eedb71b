package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/log"
)

// handleCreateSession exchanges an ID token for a session cookie.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		ErrorResponse(http.StatusUnauthorized, "authentication is not configured").Write(w)
		return
	}
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		s.writeError(w, r, errors.Join(errBadRequest, errors.New("id_token is required")))
		return
	}

	cookie, user, err := s.sessions.CreateSession(r.Context(), req.IDToken, s.sessionTTL)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sign-in rejected", log.FieldError, err)
		ErrorResponse(http.StatusUnauthorized, "invalid ID token").Write(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookie,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.notifier.Publish(auth.StateChange{UserID: user.ID, SignedIn: true, At: s.now()})
	s.logger.InfoContext(r.Context(), "User signed in", log.FieldUserID, user.ID)

	NewJSONResponse().Data(map[string]string{"user_id": user.ID, "email": user.Email}).Write(w)
}

// handleDeleteSession revokes the user's sessions and clears the cookie.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	if err := s.sessions.RevokeSession(r.Context(), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.notifier.Publish(auth.StateChange{UserID: userID, SignedIn: false, At: s.now()})
	s.logger.InfoContext(r.Context(), "User signed out", log.FieldUserID, userID)

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
