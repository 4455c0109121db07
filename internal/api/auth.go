package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teacheasy/teacheasy/internal/config"
)

type ctxKey int

const callerKey ctxKey = iota

func callerID(ctx context.Context) string {
	id, _ := ctx.Value(callerKey).(string)
	return id
}

func withCaller(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callerKey, id)
}

// Authenticator verifies Auth0 bearer tokens. A nil *Authenticator means
// verification is disabled and callers identify themselves in the request.
type Authenticator struct {
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
}

// NewAuthenticator returns nil when cfg configures no key.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	a := &Authenticator{}
	if cfg.PublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read auth public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse auth public key: %w", err)
		}
		opts = append(opts, jwt.WithValidMethods([]string{"RS256"}))
		a.keyFunc = func(*jwt.Token) (interface{}, error) { return key, nil }
	} else {
		secret := []byte(cfg.SigningSecret)
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
		a.keyFunc = func(*jwt.Token) (interface{}, error) { return secret, nil }
	}
	a.parser = jwt.NewParser(opts...)
	return a, nil
}

// Verify checks the token and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	if _, err := a.parser.ParseWithClaims(token, &claims, a.keyFunc); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// Middleware attaches the verified caller to the request context. Requests
// without a bearer token pass through anonymously; a bad token is rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}
		sub, err := a.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), sub)))
	})
}

// Identity resolves who is acting. With verification enabled only the token
// subject counts; otherwise the client-supplied id is trusted.
func (a *Authenticator) Identity(r *http.Request, claimed string) string {
	if a == nil {
		return claimed
	}
	return callerID(r.Context())
}

// ActingAs resolves the user a request acts for when the client names one
// explicitly. With verification enabled the named id must be empty or equal
// the token subject; ok is false for anyone else's id.
func (a *Authenticator) ActingAs(r *http.Request, claimed string) (id string, ok bool) {
	if a == nil {
		return claimed, true
	}
	caller := callerID(r.Context())
	if claimed != "" && claimed != caller {
		return "", false
	}
	return caller, true
}

// Permits reports whether the request may read or change data owned by userID.
func (a *Authenticator) Permits(r *http.Request, userID string) bool {
	_, ok := a.ActingAs(r, userID)
	return ok && userID != ""
}
