package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"feedmark/internal/core"
)

type contextKey string

const userContextKey = contextKey("user")

// Middleware resolves the requesting user once per request
type Middleware struct {
	service *Service
	logger  *core.Logger
}

// NewMiddleware creates new authentication middleware
func NewMiddleware(service *Service, logger *core.Logger) *Middleware {
	return &Middleware{
		service: service,
		logger:  logger,
	}
}

// Authenticate puts the user named by the Bearer header or auth_token cookie into the
// request context. Requests without credentials carry AnonymousUser.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		token, ok := m.tokenFromRequest(r)
		if !ok {
			m.invalidAuthenticationTokenResponse(w)
			return
		}
		if token == "" {
			next.ServeHTTP(w, ContextSetUser(r, AnonymousUser))
			return
		}

		user, err := m.service.ValidateToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				m.invalidAuthenticationTokenResponse(w)
				return
			}
			m.logger.WithContext(r.Context()).Error("Token validation error", "error", err)
			core.HandleError(w, core.NewInternalError("Internal server error", err))
			return
		}

		next.ServeHTTP(w, ContextSetUser(r, user))
	})
}

// tokenFromRequest returns ("", true) when no credentials are present and
// ok == false when the Authorization header is malformed.
func (m *Middleware) tokenFromRequest(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value, true
	}

	return "", true
}

// RequireAuthenticatedUser rejects anonymous requests
func (m *Middleware) RequireAuthenticatedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r)

		if user.IsAnonymous() {
			core.WriteErrorResponse(w, http.StatusUnauthorized, core.NewUnauthorizedError("Authentication required", nil))
			return
		}

		if !user.Activated {
			core.WriteErrorResponse(w, http.StatusForbidden, core.NewForbiddenError("Account not activated", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) invalidAuthenticationTokenResponse(w http.ResponseWriter) {
	core.WriteErrorResponse(w, http.StatusUnauthorized, core.NewUnauthorizedError("Invalid authentication token", nil))
}

// ContextSetUser returns a copy of r carrying user
func ContextSetUser(r *http.Request, user *User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// GetUserFromContext returns the request's user, or AnonymousUser if none was set
func GetUserFromContext(r *http.Request) *User {
	user, ok := r.Context().Value(userContextKey).(*User)
	if !ok {
		return AnonymousUser
	}
	return user
}
