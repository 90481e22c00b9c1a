package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/supabase-community/gotrue-go/types"
)

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	Validate(token string) (*helpers.CustomClaims, error)
}

// SessionStore maps identities to users and renews sessions.
type SessionStore interface {
	ResolvePrincipal(ctx context.Context, authID string) (*models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

type Authenticator struct {
	verifier      TokenVerifier
	sessions      SessionStore
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthenticator(verifier TokenVerifier, sessions SessionStore, secureCookies bool, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		verifier:      verifier,
		sessions:      sessions,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

var errNoToken = &apperrors.CustomError{Err: apperrors.ErrUnauthorized, Message: "authentication required"}

// accessToken prefers the Authorization bearer header over the cookie.
func accessToken(c *gin.Context) (string, bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), true
		}
	}
	if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil && token != "" {
		return token, true
	}
	return "", false
}

// refresh trades the refresh cookie for a new token pair and validates it.
func (a *Authenticator) refresh(c *gin.Context) (*helpers.CustomClaims, error) {
	refreshToken, err := c.Cookie(helpers.RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		return nil, apperrors.ErrInvalidToken
	}
	tokens, err := a.sessions.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil || tokens == nil || tokens.AccessToken == "" {
		a.logger.Warn("Token refresh failed", "request_id", c.GetString("request_id"), "error", err)
		return nil, apperrors.ErrInvalidToken
	}

	helpers.SetAuthCookies(c, tokens, a.secureCookies)
	claims, err := a.verifier.Validate(tokens.AccessToken)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	a.logger.Info("Token refreshed successfully", "auth_id", claims.Subject, "expires_in", tokens.ExpiresIn)
	return claims, nil
}

func roleOf(claims *helpers.CustomClaims) string {
	for _, r := range claims.AppMetadata.Roles {
		if r == "admin" {
			return "admin"
		}
	}
	return "user"
}

func (a *Authenticator) authenticate(c *gin.Context) (*helpers.Principal, error) {
	token, found := accessToken(c)

	var claims *helpers.CustomClaims
	var err error
	if found {
		claims, err = a.verifier.Validate(token)
	}
	if !found || err != nil {
		if claims, err = a.refresh(c); err != nil {
			if !found {
				return nil, errNoToken
			}
			return nil, err
		}
	}

	user, err := a.sessions.ResolvePrincipal(c.Request.Context(), claims.Subject)
	if err != nil {
		return nil, err
	}

	return &helpers.Principal{
		CustomClaims: claims,
		UserID:       user.ID,
		AuthID:       claims.Subject,
		Email:        user.Email,
		Role:         roleOf(claims),
	}, nil
}

// Required rejects requests without a valid session.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := a.authenticate(c)
		if err != nil {
			status := apperrors.StatusCode(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				_ = c.Error(err)
				msg = "internal server error"
			}
			c.AbortWithStatusJSON(status, models.ApiResponse{
				Success:   false,
				Message:   "Unauthorized access",
				Error:     msg,
				RequestID: c.GetString("request_id"),
			})
			return
		}
		c.Set(helpers.PrincipalKey, principal)
		c.Next()
	}
}

// Optional attaches the principal when the caller is signed in and otherwise
// lets the request through anonymously.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := a.authenticate(c)
		if err == nil {
			c.Set(helpers.PrincipalKey, principal)
		} else if !errors.Is(err, apperrors.ErrUnauthorized) {
			a.logger.Warn("Optional authentication failed", "request_id", c.GetString("request_id"), "error", err)
		}
		c.Next()
	}
}
