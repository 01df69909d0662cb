// Package models defines client-side data models used by the authkeeper CLI.
package models

import "github.com/dmitrijs2005/authkeeper/internal/timex"

// Tokens is the session material returned by login and refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	CSRFToken    string `json:"csrf_token"`
}

// Empty reports whether no session is held.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// User is the public view of an account.
type User struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	DateOfBirth *timex.Date `json:"date_of_birth"`
	Age         *int        `json:"age,omitempty"`
	IsAdult     *bool       `json:"is_adult,omitempty"`
}

// Registration is the payload for creating an account.
type Registration struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	DateOfBirth *timex.Date `json:"date_of_birth"`
}
