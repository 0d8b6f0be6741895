package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// Cookies reads and writes HttpOnly cookies whose values are
// JSON encoded, authenticated and, with a block key, encrypted.
type Cookies struct {
	codec    *securecookie.SecureCookie
	insecure bool
	maxAge   int
}

type CookieOption func(*Cookies)

// NewCookies creates the cookie codec. blockKey may be nil for
// authenticated but readable cookies.
func NewCookies(hashKey, blockKey []byte, opts ...CookieOption) *Cookies {
	c := &Cookies{
		codec: securecookie.New(hashKey, blockKey).SetSerializer(securecookie.JSONEncoder{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CookiesInsecure drops the Secure attribute, for http issuers.
func CookiesInsecure() CookieOption {
	return func(c *Cookies) {
		c.insecure = true
	}
}

// CookiesLifetime bounds the cookie in the browser and
// the timestamp inside the value.
func CookiesLifetime(lifetime time.Duration) CookieOption {
	return func(c *Cookies) {
		c.maxAge = int(lifetime.Seconds())
		c.codec.MaxAge(c.maxAge)
	}
}

// Read decodes the named cookie into dst. A missing cookie
// returns http.ErrNoCookie.
func (c *Cookies) Read(r *http.Request, name string, dst any) error {
	cookie, err := r.Cookie(name)
	if err != nil {
		return err
	}
	if err = c.codec.Decode(name, cookie.Value, dst); err != nil {
		return fmt.Errorf("cookie %s: %w", name, err)
	}
	return nil
}

func (c *Cookies) Write(w http.ResponseWriter, name string, value any) error {
	encoded, err := c.codec.Encode(name, value)
	if err != nil {
		return fmt.Errorf("cookie %s: %w", name, err)
	}
	http.SetCookie(w, c.cookie(name, encoded, c.maxAge))
	return nil
}

func (c *Cookies) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, c.cookie(name, "", -1))
}

func (c *Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !c.insecure,
		SameSite: http.SameSiteLaxMode,
	}
}
