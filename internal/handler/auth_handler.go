package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/dto"
	"github.com/prperemyshlev/risk-auth/internal/repository"
	"github.com/prperemyshlev/risk-auth/internal/service"
	"go.uber.org/zap"
)

// Options configures the auth handler
type Options struct {
	Cookies        CookiePolicy
	HomeURL        string
	ClientIPHeader string
}

// AuthHandler handles the OAuth login flow and session endpoints
type AuthHandler struct {
	issuer *service.SessionIssuer
	users  repository.UserRepository
	opts   Options
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(issuer *service.SessionIssuer, users repository.UserRepository, opts Options, logger *zap.Logger) *AuthHandler {
	if opts.HomeURL == "" {
		opts.HomeURL = "/"
	}
	return &AuthHandler{
		issuer: issuer,
		users:  users,
		opts:   opts,
		logger: logger,
	}
}

// Login redirects the browser to the provider's authorize page
// @Router /login/{provider} [get]
func (h *AuthHandler) Login(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("provider"))
	if err != nil {
		notFoundProvider(c)
		return
	}

	state := uuid.NewString()

	redirectURL, err := h.issuer.BeginLogin(platform, state)
	if err != nil {
		h.writeLoginError(c, err)
		return
	}

	h.opts.Cookies.setState(c, state)
	c.Redirect(http.StatusFound, redirectURL)
}

// Callback completes the login the provider redirected back to and sets
// the session cookies
// @Router /auth/{provider} [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("provider"))
	if err != nil {
		notFoundProvider(c)
		return
	}

	stateOK := h.opts.Cookies.consumeState(c)

	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Info("provider refused authorization",
			zap.String("platform", platform.String()),
			zap.String("error", providerErr),
		)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad Request",
			Message: "Authorization was not granted",
		})
		return
	}

	if !stateOK {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid or missing OAuth state",
		})
		return
	}

	session, err := h.issuer.CompleteLogin(c.Request.Context(), service.CallbackRequest{
		Platform: platform,
		Code:     c.Query("code"),
		ClientIP: ClientIP(c, h.opts.ClientIPHeader),
	})
	if err != nil {
		h.writeLoginError(c, err)
		return
	}

	h.opts.Cookies.setSession(c, session.Username, session.Token, session.MaxAge)
	c.Redirect(http.StatusFound, h.opts.HomeURL)
}

// Logout clears both session cookies. The claims token itself stays valid
// until it expires.
// @Router /{provider}/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, err := domain.ParsePlatform(c.Param("provider")); err != nil {
		notFoundProvider(c)
		return
	}

	h.opts.Cookies.clearSession(c)
	c.Redirect(http.StatusFound, h.opts.HomeURL)
}

// WhoAmI reports the low-trust identity of the caller
// @Router /api/whoami [get]
func (h *AuthHandler) WhoAmI(c *gin.Context) {
	username, ok := Username(c)
	c.JSON(http.StatusOK, dto.WhoAmIResponse{
		Username:  username,
		Anonymous: !ok,
	})
}

// Me returns the caller's stored user record. Requires ClaimsGuard and
// RequireMatchingIdentity.
// @Router /api/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := SessionClaims(c)
	if !ok {
		unauthorized(c, "Session cookie is required")
		return
	}

	user, err := h.users.Load(c.Request.Context(), claims.Username, claims.Platform)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "Not Found",
				Message: "User not found",
			})
			return
		}
		h.logger.Error("failed to load user", zap.Int64("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to load user",
		})
		return
	}

	c.JSON(http.StatusOK, dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Platform:  user.Platform.String(),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// writeLoginError answers with the status the issuer classified the
// failure as. Internal details stay in the log.
func (h *AuthHandler) writeLoginError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var loginErr *service.LoginError
	if errors.As(err, &loginErr) {
		status = loginErr.Status
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: loginFailureMessage(status),
	})
}

func loginFailureMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Unknown identity provider"
	case http.StatusBadRequest:
		return "Login could not be completed"
	case http.StatusForbidden:
		return "Login denied"
	case http.StatusNotAcceptable:
		return "Session could not be issued"
	default:
		return "Internal server error"
	}
}

func notFoundProvider(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{
		Error:   http.StatusText(http.StatusNotFound),
		Message: loginFailureMessage(http.StatusNotFound),
	})
}
