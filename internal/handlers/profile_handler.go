package handlers

import (
	"net/http"

	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/services"
	"github.com/gin-gonic/gin"
)

func GetProfile(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		profile, err := ps.GetProfile(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, profile, "")
	}
}

func UpdateMyProfile(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		var input models.UpdateProfileInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		profile, err := ps.UpdateProfile(c.Request.Context(), userID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, profile, "profile updated")
	}
}

func Follow(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		target, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		res, err := ps.Follow(c.Request.Context(), userID, target)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, res, "")
	}
}

func Unfollow(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		target, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		res, err := ps.Unfollow(c.Request.Context(), userID, target)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, res, "")
	}
}

func ListFriends(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		friends, err := ps.Friends(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, friends, "")
	}
}

func ListFollowers(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		followers, err := ps.Followers(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, followers, "")
	}
}

func SearchUsers(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := ps.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, profiles, "")
	}
}

func SetMyStatus(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		var input models.PresenceInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		view, err := ps.SetPresence(c.Request.Context(), userID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, view, "")
	}
}

func GetStatus(ps *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		view, err := ps.GetPresence(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, view, "")
	}
}
