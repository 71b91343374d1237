package service

import (
	"log/slog"
	"net/http"

	"github.com/saks786/expense-tracker/internal/auth"
	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// AuthService handles registration, login and the current-user endpoint.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
}

// NewAuthService creates an auth service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Register creates a new account.
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Username == "" || req.Email == "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, "username and email are required")
		return
	}

	user, err := s.authenticator.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	httpx.JSON(w, http.StatusCreated, newUserResponse(user))
}

// Token authenticates a user and issues a bearer token.
func (s *AuthService) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	user, err := s.authenticator.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		respondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(user))
}
