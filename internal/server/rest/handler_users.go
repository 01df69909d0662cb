package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
	"github.com/gorilla/mux"
)

type registerRequest struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	DateOfBirth *timex.Date `json:"date_of_birth"`
}

type updateRequest struct {
	Email       *string     `json:"email"`
	Password    *string     `json:"password"`
	DateOfBirth *timex.Date `json:"date_of_birth"`
}

// userResponse never carries the password hash.
type userResponse struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	DateOfBirth *timex.Date `json:"date_of_birth"`
}

type userInfoResponse struct {
	userResponse
	Age     *int `json:"age"`
	IsAdult bool `json:"is_adult"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{Username: u.Username, Email: u.Email, DateOfBirth: u.DateOfBirth}
}

func newUserInfoResponse(info *services.UserInfo) userInfoResponse {
	return userInfoResponse{userResponse: newUserResponse(info.User), Age: info.Age, IsAdult: info.IsAdult}
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	user, err := s.users.Register(r.Context(), services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *HTTPServer) updateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	info, err := s.users.Update(r.Context(), user.Username, services.UpdateInput{
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(info.User))
}

func (s *HTTPServer) deleteMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	if err := s.users.Delete(r.Context(), user.Username); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cookies.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// userByName only serves the caller's own record.
func (s *HTTPServer) userByName(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	if mux.Vars(r)["username"] != user.Username {
		s.writeError(w, r, common.ErrorForbidden)
		return
	}

	info, err := s.users.Info(r.Context(), user.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserInfoResponse(info))
}
