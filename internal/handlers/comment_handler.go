package handlers

import (
	"net/http"

	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/services"
	"github.com/gin-gonic/gin"
)

func GetComments(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		tree, err := cs.GetComments(c.Request.Context(), eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, tree, "")
	}
}

func AddComment(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		eventID, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.CreateCommentInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		node, err := cs.AddComment(c.Request.Context(), eventID, userID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, node, "comment added")
	}
}

func UpdateComment(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		commentID, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.UpdateCommentInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		node, err := cs.UpdateComment(c.Request.Context(), commentID, userID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, node, "comment updated")
	}
}

func DeleteComment(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		commentID, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := cs.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil, "comment deleted")
	}
}
