package handlers

import (
	"net/http"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/services"
	"github.com/gin-gonic/gin"
)

func Signup(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.SignupInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		user, err := u.Signup(c.Request.Context(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, user, "account created")
	}
}

// Login sets the token pair as cookies and returns only the user.
func Login(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}

		tokens, err := u.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		if tokens.AccessToken == "" {
			respondError(c, apperrors.ErrInvalidToken)
			return
		}

		helpers.SetAuthCookies(c, tokens, secureCookies)
		respondOK(c, http.StatusOK, gin.H{"user": tokens.User}, "logged in")
	}
}

func RefreshSession(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, err := c.Cookie(helpers.RefreshTokenCookie)
		if err != nil {
			respondError(c, apperrors.NewValidationError("refresh_token", "refresh token cookie not found"))
			return
		}
		tokens, err := u.RefreshToken(c.Request.Context(), refreshToken)
		if err != nil {
			respondError(c, err)
			return
		}
		helpers.SetAuthCookies(c, tokens, secureCookies)
		respondOK(c, http.StatusOK, nil, "session refreshed")
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.ClearAuthCookies(c, secureCookies)
		respondOK(c, http.StatusOK, nil, "logged out successfully")
	}
}
