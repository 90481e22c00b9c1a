package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/services"
	"github.com/gin-gonic/gin"
)

// CreateEvent accepts a JSON body, or multipart form data with the event as
// JSON in "event_data" and an optional "image" file.
func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalID(c)
		if !ok {
			return
		}

		var input models.CreateEventInput
		var upload *services.ImageUpload

		if c.ContentType() == "multipart/form-data" {
			raw := c.PostForm("event_data")
			if strings.TrimSpace(raw) == "" {
				respondError(c, apperrors.NewValidationError("event_data", "event_data is required"))
				return
			}
			if err := json.Unmarshal([]byte(raw), &input); err != nil {
				respondError(c, apperrors.NewValidationError("event_data", "event_data must be valid JSON"))
				return
			}

			fh, err := c.FormFile("image")
			switch {
			case err == nil:
				f, err := fh.Open()
				if err != nil {
					respondError(c, apperrors.NewValidationError("image", "image could not be read"))
					return
				}
				defer f.Close()
				upload = &services.ImageUpload{Filename: fh.Filename, Size: fh.Size, Data: f}
			case !errors.Is(err, http.ErrMissingFile):
				respondError(c, apperrors.NewValidationError("image", "invalid image upload"))
				return
			}
		} else if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		event, err := es.CreateEvent(c.Request.Context(), input, userID, upload)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, event, "event created")
	}
}

func parseListEventsQuery(c *gin.Context) (models.ListEventsQuery, error) {
	var q models.ListEventsQuery
	var err error
	if q.Page, err = queryInt(c, "page", 1); err != nil {
		return q, err
	}
	if q.PerPage, err = queryInt(c, "per_page", services.DefaultPerPage); err != nil {
		return q, err
	}

	q.Filters = models.EventFilters{
		Category: c.Query("category"),
		Location: c.Query("location"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("date_from"); raw != "" {
		t, err := services.ParseEventDate(raw)
		if err != nil {
			return q, apperrors.NewValidationError("date_from", "date_from must be an ISO-8601 datetime")
		}
		q.Filters.DateFrom = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, err := services.ParseEventDate(raw)
		if err != nil {
			return q, apperrors.NewValidationError("date_to", "date_to must be an ISO-8601 datetime")
		}
		q.Filters.DateTo = &t
	}
	if raw := c.Query("organizer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, apperrors.NewValidationError("organizer_id", "organizer_id must be an integer")
		}
		q.Filters.OrganizerID = &id
	}
	return q, nil
}

func ListEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query, err := parseListEventsQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		page, err := es.GetEvents(c.Request.Context(), query, optionalPrincipalID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, page, "")
	}
}

func GetEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		event, err := es.GetEvent(c.Request.Context(), id, optionalPrincipalID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, event, "")
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
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
		var input models.UpdateEventInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		event, err := es.UpdateEvent(c.Request.Context(), id, userID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, event, "event updated")
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
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
		if err := es.DeleteEvent(c.Request.Context(), id, userID); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil, "event deleted")
	}
}

func JoinEvent(es *services.EventService) gin.HandlerFunc {
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
		event, err := es.JoinEvent(c.Request.Context(), id, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, event, "joined event")
	}
}

func LeaveEvent(es *services.EventService) gin.HandlerFunc {
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
		event, err := es.LeaveEvent(c.Request.Context(), id, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, event, "left event")
	}
}

func ListEventActivities(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		limit, err := queryInt(c, "limit", services.DefaultActivityLimit)
		if err != nil {
			respondError(c, err)
			return
		}
		activities, err := es.ListActivities(c.Request.Context(), id, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, activities, "")
	}
}
