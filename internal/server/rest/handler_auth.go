package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	CSRFToken    string `json:"csrf_token"`
}

func (s *HTTPServer) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Service is running"})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	s.startSession(w, r, req.Username, req.Password)
}

// loginForm accepts the OAuth2 password-grant form encoding.
func (s *HTTPServer) loginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	s.startSession(w, r, r.PostForm.Get("username"), r.PostForm.Get("password"))
}

func (s *HTTPServer) startSession(w http.ResponseWriter, r *http.Request, username, password string) {
	session, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, session)
}

func (s *HTTPServer) writeSession(w http.ResponseWriter, session *services.Session) {
	s.cookies.setSession(w, session)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		CSRFToken:    session.CSRFToken,
	})
}

// refreshToken reads the token from an optional JSON body, falling back to
// the refresh_token cookie. A body that is present but not JSON is an error.
func refreshToken(r *http.Request) (string, error) {
	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		return c.Value, nil
	}
	return "", nil
}

func (s *HTTPServer) refresh(w http.ResponseWriter, r *http.Request) {
	token, err := refreshToken(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	session, err := s.auth.Refresh(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, session)
}

// logout never fails: the cookies are cleared even when the body is unreadable.
func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	token, err := refreshToken(r)
	if err != nil {
		s.logger.Debug(r.Context(), "ignoring malformed logout body", "error", err)
	}
	_ = s.auth.Logout(r.Context(), token)
	s.cookies.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) oauthRedirect(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotImplemented, "OAuth provider "+mux.Vars(r)["provider"]+" is not supported")
}
