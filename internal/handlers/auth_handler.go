package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Jahmax1/Dragotix/internal/status"
)

// AuthHandler exposes the registration/login surface on top of the users
// auth collection. Tokens are PocketBase record auth tokens; password
// hashing and email uniqueness are handled by the collection itself.
type AuthHandler struct {
	app *pocketbase.PocketBase
}

func NewAuthHandler(app *pocketbase.PocketBase) *AuthHandler {
	return &AuthHandler{app: app}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *AuthHandler) Register(e *core.RequestEvent) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Email == "" || req.Password == "" {
		return apis.NewBadRequestError("Email and password are required", nil)
	}
	if req.Role == "" {
		req.Role = RoleUser
	}
	if req.Role != RoleUser && req.Role != RoleOrganizer {
		return apis.NewBadRequestError("Invalid role", nil)
	}

	if existing, _ := h.app.FindAuthRecordByEmail("users", req.Email); existing != nil {
		return toAPIError(status.ErrDuplicateEmail)
	}

	collection, err := h.app.FindCollectionByNameOrId("users")
	if err != nil {
		return apis.NewInternalServerError("Internal server error", err)
	}
	record := core.NewRecord(collection)
	record.Set("email", req.Email)
	record.Set("role", req.Role)
	record.SetPassword(req.Password)

	if err := h.app.Save(record); err != nil {
		slog.Error("User registration failed", "email", req.Email, "error", err)
		return apis.NewBadRequestError("Failed to register user", err)
	}

	return h.respondWithToken(e, record)
}

func (h *AuthHandler) Login(e *core.RequestEvent) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	record, err := h.app.FindAuthRecordByEmail("users", req.Email)
	if err != nil || !record.ValidatePassword(req.Password) {
		return toAPIError(status.ErrInvalidCredentials)
	}

	return h.respondWithToken(e, record)
}

// CheckRole resolves a user's role from their email, used by the client to
// gate organizer-only views before login completes.
func (h *AuthHandler) CheckRole(e *core.RequestEvent) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	record, err := h.app.FindAuthRecordByEmail("users", req.Email)
	if err != nil {
		return toAPIError(status.ErrUnknownUser)
	}

	return e.JSON(http.StatusOK, map[string]string{"role": record.GetString("role")})
}

func (h *AuthHandler) respondWithToken(e *core.RequestEvent, record *core.Record) error {
	token, err := record.NewAuthToken()
	if err != nil {
		return apis.NewInternalServerError("Failed to issue token", err)
	}
	return e.JSON(http.StatusOK, authResponse{
		Token: token,
		User: userResponse{
			ID:    record.Id,
			Email: record.GetString("email"),
			Role:  record.GetString("role"),
		},
	})
}
