package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedmark/internal/core"
)

// Handler provides authentication HTTP handlers
type Handler struct {
	service *Service
	logger  *core.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service *Service, logger *core.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	User  *User  `json:"user"`
	Token *Token `json:"token"`
}

// LoginHandler exchanges credentials for a bearer token
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return
	}

	if req.Email == "" || req.Password == "" {
		core.HandleError(w, core.NewValidationError("Email and password are required", nil))
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			core.HandleError(w, core.NewUnauthorizedError("Invalid credentials", err))
		case errors.Is(err, ErrUserNotActivated):
			core.HandleError(w, core.NewForbiddenError("Account not activated", err))
		default:
			h.logger.WithContext(r.Context()).Error("Authentication error", "error", err)
			core.HandleError(w, core.NewInternalError("Authentication failed", err))
		}
		return
	}

	token, err := h.service.CreateAuthenticationToken(r.Context(), user)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Token creation error", "error", err)
		core.HandleError(w, core.NewInternalError("Failed to create authentication token", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token.Plaintext,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		Expires:  token.Expiry,
	})

	core.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    LoginResponse{User: user, Token: token},
	})

	h.logger.Info("User logged in", "user_id", user.ID)
}

// LogoutHandler drops every token of the requesting user
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	if user.IsAnonymous() {
		core.HandleError(w, core.NewUnauthorizedError("Authentication required", nil))
		return
	}

	if err := h.service.LogoutUser(r.Context(), user.ID); err != nil {
		h.logger.WithContext(r.Context()).Error("Logout error", "user_id", user.ID, "error", err)
		core.HandleError(w, core.NewInternalError("Failed to log out", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "auth_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	core.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
