package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type userResponse struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
	Link     *string `json:"link,omitempty"`
	LinkURL  string  `json:"link_url,omitempty"`
}

type messageRequest struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	RecipientID int64     `json:"recipient_id"`
	IsAnonymous bool      `json:"is_anonymous"`
}

type reportResponse struct {
	ID         int64     `json:"id"`
	MessageID  int64     `json:"message_id"`
	ReportedAt time.Time `json:"reported_at"`
}

type linkResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

func (s *Server) linkURL(token string) string {
	return s.baseURL + "/l/" + token
}

func (s *Server) toUserResponse(u *models.User) userResponse {
	out := userResponse{ID: u.ID, Username: u.UserName, Email: u.Email, Link: u.CurrentLink}
	if u.CurrentLink != nil {
		out.LinkURL = s.linkURL(*u.CurrentLink)
	}
	return out
}

func toMessageResponse(m *models.Message) messageResponse {
	return messageResponse{
		ID:          m.ID,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
		RecipientID: m.RecipientID,
		IsAnonymous: m.IsAnonymous,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := s.startSession(w, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, sessionResponse{User: s.toUserResponse(user), Token: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.deps.Identities.CreateLocalUser(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.respondSession(w, r, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.deps.Identities.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.respondSession(w, r, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.OAuth == nil {
		s.writeError(w, r, common.ErrorNotFound)
		return
	}

	url, err := s.deps.OAuth.Begin(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.OAuth == nil {
		s.writeError(w, r, common.ErrorNotFound)
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.logger.Warn(r.Context(), "identity provider returned an error", "error", e)
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	user, err := s.deps.OAuth.Complete(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.respondSession(w, r, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.toUserResponse(currentUser(r.Context())))
}

func (s *Server) handleResolveLink(w http.ResponseWriter, r *http.Request) {
	name, err := s.deps.Inbox.ResolveLink(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": name})
}

func (s *Server) handleSubmitAnonymous(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	msg, err := s.deps.Inbox.SubmitAnonymous(r.Context(), chi.URLParam(r, "token"), req.Content,
		clientIP(r), r.UserAgent())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": msg.ID})
}

func (s *Server) handleSubmitAuthenticated(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	msg, err := s.deps.Inbox.SubmitAuthenticated(r.Context(), currentUser(r.Context()), req.Recipient, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	caller := currentUser(r.Context())

	ownerID := caller.ID
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, r, common.ErrInvalidInput)
			return
		}
		ownerID = id
	}

	msgs, err := s.deps.Inbox.ListInbox(r.Context(), caller, ownerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, common.ErrInvalidInput)
		return
	}

	report, err := s.deps.Inbox.ReportMessage(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, reportResponse{
		ID:         report.ID,
		MessageID:  report.MessageID,
		ReportedAt: report.ReportedAt,
	})
}

func (s *Server) handleRegenerateLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.deps.Inbox.RegenerateLink(r.Context(), currentUser(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, linkResponse{
		Token:     link.Token,
		URL:       s.linkURL(link.Token),
		CreatedAt: link.CreatedAt,
		Active:    true,
	})
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	history, err := s.deps.Links.History(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]linkResponse, 0, len(history))
	for _, l := range history {
		out = append(out, linkResponse{
			Token:     l.Token,
			URL:       s.linkURL(l.Token),
			CreatedAt: l.CreatedAt,
			Active:    user.CurrentLink != nil && *user.CurrentLink == l.Token,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
