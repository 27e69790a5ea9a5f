package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/models"
	"example.com/meal-assistant/backend/internal/repository"
)

type AuthHandler struct {
	users        *repository.UserRepository
	refreshRepo  *repository.RefreshTokenRepository
	tokenManager *auth.TokenManager
	logger       *slog.Logger
}

// NewAuthHandler создает обработчик регистрации и входа.
func NewAuthHandler(
	users *repository.UserRepository,
	refreshRepo *repository.RefreshTokenRepository,
	tokenManager *auth.TokenManager,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:        users,
		refreshRepo:  refreshRepo,
		tokenManager: tokenManager,
		logger:       logger,
	}
}

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	// AllSessions отзывает все refresh-токены пользователя разом.
	AllSessions bool `json:"all_sessions"`
}

type tokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type authResponse struct {
	User   models.User   `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

// Register регистрирует пользователя и выдает пару токенов.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		return serverError()
	}

	user, err := h.users.Create(c.Request().Context(), req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict("email already registered")
		}
		h.logger.Error("failed to create user", "error", err)
		return serverError()
	}

	tokens, err := h.issueTokens(c, user.ID)
	if err != nil {
		h.logger.Error("failed to issue tokens", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

// Login проверяет пароль и выдает пару токенов.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	user, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized("invalid email or password")
		}
		h.logger.Error("failed to load user", "error", err)
		return serverError()
	}

	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return unauthorized("invalid email or password")
	}

	tokens, err := h.issueTokens(c, user.ID)
	if err != nil {
		h.logger.Error("failed to issue tokens", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, authResponse{User: user, Tokens: tokens})
}

// Refresh меняет refresh-токен на новую пару токенов.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	claims, err := h.tokenManager.Parse(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		return unauthorized("invalid refresh token")
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return unauthorized("invalid refresh token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return unauthorized("invalid refresh token")
	}

	// отозванные и просроченные токены запрос не возвращает
	stored, err := h.refreshRepo.GetActive(c.Request().Context(), tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized("refresh token expired or revoked")
		}
		h.logger.Error("failed to load refresh token", "error", err)
		return serverError()
	}

	if stored.UserID != userID || !auth.CompareTokenHash(stored.TokenHash, req.RefreshToken) {
		return unauthorized("refresh token not recognized")
	}

	pair, err := h.tokenManager.Issue(userID)
	if err != nil {
		h.logger.Error("failed to issue tokens", "error", err)
		return serverError()
	}

	err = h.refreshRepo.Rotate(c.Request().Context(), tokenID, models.RefreshToken{
		ID:        pair.RefreshTokenID,
		UserID:    userID,
		TokenHash: auth.HashToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized("refresh token expired or revoked")
		}
		h.logger.Error("failed to rotate refresh token", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
}

// Logout отзывает refresh-токен. С флагом all_sessions отзываются все
// действующие токены пользователя.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	claims, err := h.tokenManager.Parse(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		return unauthorized("invalid refresh token")
	}

	if req.AllSessions {
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return unauthorized("invalid refresh token")
		}
		if _, err := h.refreshRepo.RevokeAllForUser(c.Request().Context(), userID); err != nil {
			h.logger.Error("failed to revoke user sessions", "error", err)
			return serverError()
		}
		return c.NoContent(http.StatusNoContent)
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return unauthorized("invalid refresh token")
	}

	if err := h.refreshRepo.Revoke(c.Request().Context(), tokenID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		h.logger.Error("failed to revoke refresh token", "error", err)
		return serverError()
	}

	return c.NoContent(http.StatusNoContent)
}

// Me возвращает профиль текущего пользователя.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	user, err := h.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user not found")
		}
		h.logger.Error("failed to load user", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(c echo.Context, userID uuid.UUID) (tokenResponse, error) {
	pair, err := h.tokenManager.Issue(userID)
	if err != nil {
		return tokenResponse{}, err
	}

	err = h.refreshRepo.Create(c.Request().Context(), models.RefreshToken{
		ID:        pair.RefreshTokenID,
		UserID:    userID,
		TokenHash: auth.HashToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return tokenResponse{}, err
	}

	return tokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}

func unauthorized(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, message)
}

func notFound(message string) error {
	return echo.NewHTTPError(http.StatusNotFound, message)
}

func conflict(message string) error {
	return echo.NewHTTPError(http.StatusConflict, message)
}

func serverError() error {
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
