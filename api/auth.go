/*
auth.go - Login endpoint and bearer-token middleware

PURPOSE:
  Admin accounts sign in with username/password and receive a signed JWT.
  Every mutating endpoint and the admin dashboard require a valid bearer
  token; the donor directory reads stay public.

SEE ALSO:
  - auth/token.go: JWT issue/validate
  - auth/password.go: bcrypt verification
  - server.go: Which routes the middleware wraps
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lostSilverfish/blood-donors-SHAH/auth"
)

// LoginRequest is the credentials body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserDTO represents an admin account in API responses.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginResponseDTO is returned on successful login.
type LoginResponseDTO struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type contextKey string

const userContextKey contextKey = "auth.user"

// adminRole is the only role allowed to sign in or hold a bearer token.
const adminRole = "admin"

// Login verifies credentials and issues a token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required", nil)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	// Same response for unknown user, non-admin account and wrong password.
	if user == nil || user.Role != adminRole {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.Tokens.Generate(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponseDTO{
		Token: token,
		User: UserDTO{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}

// Me returns the authenticated account.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(userContextKey).(string)

	user, err := h.Store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	// Re-check the stored role so a demoted account's token stops working.
	if user == nil || user.Role != adminRole {
		writeError(w, http.StatusUnauthorized, "Account no longer exists", nil)
		return
	}

	writeJSON(w, http.StatusOK, UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}

// RequireAuth rejects requests without a valid admin bearer token and stores
// the authenticated user id in the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		claims, err := h.Tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		if claims.Role != adminRole {
			writeError(w, http.StatusUnauthorized, "Admin access required", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
