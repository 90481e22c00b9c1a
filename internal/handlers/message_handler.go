package handlers

import (
	"net/http"

	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/services"
	"github.com/gin-gonic/gin"
)

func CreateConversation(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		var input models.CreateConversationInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		conv, err := ms.CreateConversation(c.Request.Context(), userID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, conv, "conversation created")
	}
}

func ListConversations(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		convs, err := ms.ListConversations(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, convs, "")
	}
}

func ListMessages(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		convID, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		limit, err := queryInt(c, "limit", services.DefaultMessageLimit)
		if err != nil {
			respondError(c, err)
			return
		}
		messages, err := ms.ListMessages(c.Request.Context(), convID, userID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, messages, "")
	}
}

func SendMessage(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		convID, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.SendMessageInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		msg, err := ms.SendMessage(c.Request.Context(), convID, userID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, msg, "message sent")
	}
}

func MarkConversationRead(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}
		convID, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		n, err := ms.MarkRead(c.Request.Context(), convID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, gin.H{"marked_read": n}, "")
	}
}
