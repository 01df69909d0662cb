package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *HTTPServer) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.HandleFunc("/api/ping", s.ping).Methods(http.MethodGet)

	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/login/oauth", s.loginForm).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/oauth/{provider}", s.oauthRedirect).Methods(http.MethodGet)

	// /users/me must be registered before /users/{username}
	r.HandleFunc("/users/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/users/me", s.authenticated(s.me)).Methods(http.MethodGet)
	r.HandleFunc("/users/me", s.authenticated(s.updateMe)).Methods(http.MethodPut)
	r.HandleFunc("/users/me", s.authenticated(s.deleteMe)).Methods(http.MethodDelete)
	r.HandleFunc("/users/{username}", s.authenticated(s.userByName)).Methods(http.MethodGet)

	return r
}
