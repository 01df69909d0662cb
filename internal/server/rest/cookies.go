package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type cookieJar struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (j cookieJar) cookie(name, value string, ttl time.Duration, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// setSession writes the token cookies. The CSRF cookie stays readable by
// scripts so the page can echo it in the X-CSRF-Token header.
func (j cookieJar) setSession(w http.ResponseWriter, s *services.Session) {
	http.SetCookie(w, j.cookie(common.AccessTokenCookieName, s.AccessToken, j.accessTTL, true))
	http.SetCookie(w, j.cookie(common.RefreshTokenCookieName, s.RefreshToken, j.refreshTTL, true))
	http.SetCookie(w, j.cookie(common.CSRFTokenCookieName, s.CSRFToken, j.accessTTL, false))
}

func (j cookieJar) clearSession(w http.ResponseWriter) {
	for _, name := range []string{
		common.AccessTokenCookieName,
		common.RefreshTokenCookieName,
		common.CSRFTokenCookieName,
	} {
		c := j.cookie(name, "", 0, name != common.CSRFTokenCookieName)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
