package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
)

const headerName = "Authorization"

// Scheme is an Authorization scheme.
type Scheme int

// Supported schemes.
const (
	SchemeBasic Scheme = iota
	SchemeBearer
)

func (s Scheme) String() string {
	switch s {
	case SchemeBasic:
		return "Basic"
	case SchemeBearer:
		return "Bearer"
	default:
		return "Unknown"
	}
}

// Auth holds the credentials an agent presents to
// the SSE frontend, or a client presents to a server.
type Auth struct {
	scheme Scheme
	user   string
	secret string
}

// NewBasicAuth returns a new Basic Auth.
func NewBasicAuth(user string, password string) *Auth {
	return &Auth{scheme: SchemeBasic, user: user, secret: password}
}

// NewBearerAuth returns a new Bearer Auth.
// User() returns "Bearer" and Password() the token.
func NewBearerAuth(token string) *Auth {
	return &Auth{scheme: SchemeBearer, user: "Bearer", secret: token}
}

// Type returns the name of the scheme.
func (a *Auth) Type() string {
	return a.scheme.String()
}

// User returns the user.
func (a *Auth) User() string {
	return a.user
}

// Password returns the password or the token.
func (a *Auth) Password() string {
	return a.secret
}

// Encode returns the value of the Authorization header.
func (a *Auth) Encode() string {

	if a.scheme == SchemeBasic {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(a.user+":"+a.secret))
	}

	return "Bearer " + a.secret
}

// Apply sets the Authorization header in h.
// It is a noop on a nil Auth.
func (a *Auth) Apply(h http.Header) {
	if a == nil {
		return
	}
	h.Set(headerName, a.Encode())
}

// Equal returns true if both Auth hold the same
// scheme and credentials, in constant time.
func (a *Auth) Equal(o *Auth) bool {

	if a == nil || o == nil {
		return a == o
	}

	return subtle.ConstantTimeCompare([]byte(a.Encode()), []byte(o.Encode())) == 1
}

// LogValue implements slog.LogValuer. The secret is never logged.
func (a *Auth) LogValue() slog.Value {

	if a == nil {
		return slog.StringValue("none")
	}

	attrs := []slog.Attr{slog.String("type", a.Type())}
	if a.scheme == SchemeBasic {
		attrs = append(attrs, slog.String("user", a.user))
	}

	return slog.GroupValue(append(attrs, slog.Bool("secret", a.secret != ""))...)
}

// Parse parses the value of an Authorization header.
// Basic credentials are decoded. Any other scheme
// carries a Bearer token.
func Parse(header string) (*Auth, bool) {

	scheme, value, ok := strings.Cut(header, " ")
	if !ok || value == "" {
		return nil, false
	}

	if !strings.EqualFold(scheme, "Basic") {
		return NewBearerAuth(value), true
	}

	c, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, false
	}

	user, password, ok := strings.Cut(string(c), ":")
	if !ok {
		return nil, false
	}

	return NewBasicAuth(user, password), true
}

// FromRequest parses the Authorization header of req.
func FromRequest(req *http.Request) (*Auth, bool) {
	return Parse(req.Header.Get(headerName))
}
