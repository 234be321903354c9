package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/server/auth"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies,
	})
}

// startSession mints a session token for user and sets it as a cookie.
func (s *Server) startSession(w http.ResponseWriter, user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, s.secret, s.sessionTTL)
	if err != nil {
		return "", err
	}
	s.setSessionCookie(w, token, s.now().Add(s.sessionTTL))
	return token, nil
}
