package op

import (
	"net/http"
	"time"
)

// Session is the authenticated end-user, kept in a sealed cookie
// between authorization requests.
type Session struct {
	Subject  string
	AuthTime time.Time
	AMR      []string
	ACR      string
}

// validFor checks the session against the max_age of a request.
func (s *Session) validFor(maxAge *uint, now time.Time) bool {
	if s == nil || s.Subject == "" {
		return false
	}
	if maxAge == nil {
		return true
	}
	return !now.After(s.AuthTime.Add(time.Duration(*maxAge) * time.Second))
}

// SessionFromRequest returns the session of the request, or nil.
func (o *Provider) SessionFromRequest(r *http.Request) *Session {
	session := new(Session)
	if err := o.cookies.Read(r, sessionCookieName, session); err != nil {
		return nil
	}
	return session
}

func (o *Provider) setSession(w http.ResponseWriter, session *Session) error {
	return o.cookies.Write(w, sessionCookieName, session)
}

// EndSession removes the session cookie.
func (o *Provider) EndSession(w http.ResponseWriter) {
	o.cookies.Clear(w, sessionCookieName)
}
