package handlers

import (
	"net/http"

	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/services"
	"github.com/gin-gonic/gin"
)

func Me(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		me, err := u.Me(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, me, "")
	}
}

func GetUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := u.GetUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, user, "")
	}
}

func UpdateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.UpdateUserInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		user, err := u.UpdateUser(c.Request.Context(), userID, id, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, user, "user updated")
	}
}

func DeleteUser(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := u.DeleteUser(c.Request.Context(), userID, id); err != nil {
			respondError(c, err)
			return
		}
		helpers.ClearAuthCookies(c, secureCookies)
		respondOK(c, http.StatusOK, nil, "user deleted")
	}
}
