package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ayush/partners-api/internal/models"
	"github.com/ayush/partners-api/internal/store"
)

// AccountStore defines the user persistence the handlers need.
type AccountStore interface {
	UserStore
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users  AccountStore
	gate   *Gate
	logger *slog.Logger
}

func NewHandler(users AccountStore, gate *Gate, logger *slog.Logger) *Handler {
	return &Handler{users: users, gate: gate, logger: logger.With("module", "auth")}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Unauthorized writes the single 401 response used for every auth failure.
func Unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, `{"error":"`+msg+`"}`, http.StatusUnauthorized)
}

// Token exchanges form-encoded username and password for an access token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		http.Error(w, `{"error":"username and password are required"}`, http.StatusUnprocessableEntity)
		return
	}

	token, err := h.gate.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.InfoContext(r.Context(), "login rejected")
			Unauthorized(w, "incorrect username or password")
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}

// Register creates a new active user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusUnprocessableEntity)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"username, email, and password are required"}`, http.StatusUnprocessableEntity)
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(r.Context(), &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hashed,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			http.Error(w, `{"error":"user already exists"}`, http.StatusConflict)
			return
		}
		h.logger.ErrorContext(r.Context(), "create user failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// Me returns the user named by the request's principal.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		Unauthorized(w, "could not validate credentials")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "load user failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
