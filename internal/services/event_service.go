package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/metrics"
	"github.com/bako110/Anniv/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	DefaultPerPage       = 20
	MaxPerPage           = 100
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// ImageUpload is an optional file attached to an event create request.
type ImageUpload struct {
	Filename string
	Size     int64
	Data     io.Reader
}

type EventService struct {
	eventsRepo models.EventsRepo
	profiles   models.ProfileReader
	images     helpers.ImageStore
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewEventService(eventsRepo models.EventsRepo, profiles models.ProfileReader, images helpers.ImageStore, m *metrics.Metrics, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		eventsRepo: eventsRepo,
		profiles:   profiles,
		images:     images,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseEventDate accepts RFC3339 (with Z or an offset) or a naive
// YYYY-MM-DDTHH:MM[:SS] read as UTC.
func ParseEventDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("date", "date must be an ISO-8601 datetime")
}

func (es *EventService) futureDate(value string) (time.Time, error) {
	date, err := ParseEventDate(value)
	if err != nil {
		return time.Time{}, err
	}
	if !date.After(es.now()) {
		return time.Time{}, apperrors.NewValidationError("date", "event date must be in the future")
	}
	return date, nil
}

func requireText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperrors.NewValidationError(field, field+" is required")
	}
	return v, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func normalizePrice(price *string) string {
	if price == nil || strings.TrimSpace(*price) == "" {
		return models.DefaultPrice
	}
	return helpers.Truncate(strings.TrimSpace(*price), models.MaxPriceLength)
}

func checkMaxAttendees(v *int) error {
	if v != nil && *v <= 0 {
		return apperrors.NewValidationError("max_attendees", "max_attendees must be greater than zero")
	}
	return nil
}

// buildEvent runs every validation step of the create pipeline. Nothing is written.
func (es *EventService) buildEvent(input models.CreateEventInput, organizerID int64) (*models.Event, error) {
	title, err := requireText("title", input.Title)
	if err != nil {
		return nil, err
	}
	description, err := requireText("description", input.Description)
	if err != nil {
		return nil, err
	}
	dateStr, err := requireText("date", input.Date)
	if err != nil {
		return nil, err
	}
	location, err := requireText("location", input.Location)
	if err != nil {
		return nil, err
	}
	category, err := requireText("category", input.Category)
	if err != nil {
		return nil, err
	}
	category = strings.ToLower(category)
	if !models.IsValidCategory(category) {
		return nil, apperrors.NewValidationError("category", "category must be one of: "+strings.Join(models.EventCategories, ", "))
	}
	date, err := es.futureDate(dateStr)
	if err != nil {
		return nil, err
	}
	if err := checkMaxAttendees(input.MaxAttendees); err != nil {
		return nil, err
	}

	var image *string
	if input.Image != nil && strings.TrimSpace(*input.Image) != "" {
		img := strings.TrimSpace(*input.Image)
		image = &img
	}

	return &models.Event{
		Title:         helpers.Truncate(title, models.MaxTitleLength),
		Description:   description,
		Date:          date,
		Location:      helpers.Truncate(location, models.MaxLocationLength),
		Category:      category,
		Price:         normalizePrice(input.Price),
		Image:         image,
		IsPublic:      boolOr(input.IsPublic, true),
		AllowComments: boolOr(input.AllowComments, true),
		AllowSharing:  boolOr(input.AllowSharing, true),
		MaxAttendees:  input.MaxAttendees,
		OrganizerID:   organizerID,
	}, nil
}

func activityData(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// CreateEvent validates the input, stores the optional image and inserts the
// event together with its "created" activity.
func (es *EventService) CreateEvent(ctx context.Context, input models.CreateEventInput, organizerID int64, upload *ImageUpload) (*models.EventView, error) {
	event, err := es.buildEvent(input, organizerID)
	if err != nil {
		return nil, err
	}

	if upload != nil {
		if es.images == nil {
			return nil, apperrors.NewValidationError("image", "image uploads are not enabled")
		}
		stored, err := es.images.Save(ctx, upload.Filename, upload.Size, upload.Data)
		if err != nil {
			return nil, err
		}
		event.Image = &stored
	}

	activity := &models.EventActivity{
		UserID:       organizerID,
		ActivityType: models.ActivityCreated,
		Data:         activityData(map[string]string{"event_title": event.Title}),
	}
	if err := es.eventsRepo.CreateEventWithActivity(ctx, event, activity); err != nil {
		es.logger.Error("failed to create event", "organizer_id", organizerID, "error", err)
		if event.Image != nil && upload != nil {
			if derr := es.images.Delete(ctx, *event.Image); derr != nil {
				es.logger.Warn("failed to remove orphaned image", "image", *event.Image, "error", derr)
			}
		}
		return nil, err
	}
	es.metrics.IncrementEventCreated()
	es.logger.Info("event created", "event_id", event.ID, "organizer_id", organizerID)

	return es.GetEvent(ctx, event.ID, &organizerID)
}

func (es *EventService) organizerAvatars(ctx context.Context, userIDs []int64) (map[int64]*string, error) {
	start := time.Now()
	avatars, err := es.profiles.AvatarsByUserIDs(ctx, userIDs)
	es.metrics.ObserveProfileLookup("avatars", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load avatars: %w", err)
	}
	return avatars, nil
}

func buildEventView(event *models.Event, avatar *string, commentsCount int64, currentUserID *int64) models.EventView {
	view := models.EventView{
		ID:               event.ID,
		Title:            event.Title,
		Description:      event.Description,
		Date:             event.Date,
		Location:         event.Location,
		Category:         event.Category,
		Price:            event.Price,
		Image:            helpers.NormalizeImagePath(event.Image),
		IsPublic:         event.IsPublic,
		AllowComments:    event.AllowComments,
		AllowSharing:     event.AllowSharing,
		MaxAttendees:     event.MaxAttendees,
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
		OrganizerID:      event.OrganizerID,
		ParticipantCount: len(event.Participants),
		IsFull:           event.IsFull(len(event.Participants)),
		CommentsCount:    commentsCount,
	}
	if event.Organizer != nil {
		view.Organizer = models.NewUserSummary(event.Organizer, avatar)
		view.OrganizerName = view.Organizer.FullName
	} else {
		view.Organizer = models.UserSummary{ID: event.OrganizerID, FullName: models.DeletedUserName}
		view.OrganizerName = models.DeletedUserName
	}
	if currentUserID != nil {
		view.IsParticipant = event.HasParticipant(*currentUserID)
	}
	return view
}

func (es *EventService) GetEvent(ctx context.Context, id int64, currentUserID *int64) (*models.EventView, error) {
	event, err := es.eventsRepo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		counts  map[int64]int64
		avatars map[int64]*string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = es.eventsRepo.CountCommentsByEventIDs(gctx, []int64{id})
		return err
	})
	g.Go(func() error {
		var err error
		avatars, err = es.organizerAvatars(gctx, []int64{event.OrganizerID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := buildEventView(event, avatars[event.OrganizerID], counts[id], currentUserID)
	return &view, nil
}

// NormalizeListQuery clamps paging to 1 <= page and 1 <= per_page <= MaxPerPage.
func NormalizeListQuery(q models.ListEventsQuery) (models.ListEventsQuery, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	f := &q.Filters
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	if f.Category != "" && !models.IsValidCategory(f.Category) {
		return q, apperrors.NewValidationError("category", "category must be one of: "+strings.Join(models.EventCategories, ", "))
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return q, apperrors.NewValidationError("date_from", "date_from must not be after date_to")
	}
	return q, nil
}

// TotalPages is ceil(total/perPage).
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// GetEvents returns one filtered page of events. Comment counts and organizer
// avatars are fetched in one batched query each, concurrently.
func (es *EventService) GetEvents(ctx context.Context, query models.ListEventsQuery, currentUserID *int64) (*models.EventPage, error) {
	q, err := NormalizeListQuery(query)
	if err != nil {
		return nil, err
	}

	offset := (q.Page - 1) * q.PerPage
	events, total, err := es.eventsRepo.ListEvents(ctx, q.Filters, offset, q.PerPage)
	if err != nil {
		return nil, err
	}

	page := &models.EventPage{
		Events:  make([]models.EventView, 0, len(events)),
		Total:   total,
		Pages:   TotalPages(total, q.PerPage),
		Page:    q.Page,
		PerPage: q.PerPage,
	}
	if len(events) == 0 {
		return page, nil
	}

	eventIDs := make([]int64, 0, len(events))
	seen := make(map[int64]struct{}, len(events))
	organizerIDs := make([]int64, 0, len(events))
	for _, e := range events {
		eventIDs = append(eventIDs, e.ID)
		if _, ok := seen[e.OrganizerID]; !ok {
			seen[e.OrganizerID] = struct{}{}
			organizerIDs = append(organizerIDs, e.OrganizerID)
		}
	}

	var (
		counts  map[int64]int64
		avatars map[int64]*string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = es.eventsRepo.CountCommentsByEventIDs(gctx, eventIDs)
		return err
	})
	g.Go(func() error {
		var err error
		avatars, err = es.organizerAvatars(gctx, organizerIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range events {
		e := &events[i]
		page.Events = append(page.Events, buildEventView(e, avatars[e.OrganizerID], counts[e.ID], currentUserID))
	}

	es.logger.Debug("events listed", "page", q.Page, "per_page", q.PerPage, "total", total)
	return page, nil
}

func (es *EventService) loadOwnedEvent(ctx context.Context, id, actorID int64) (*models.Event, error) {
	event, err := es.eventsRepo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actorID {
		return nil, apperrors.ErrNotOrganizer
	}
	return event, nil
}

// eventUpdates validates a patch and returns the column map plus the changed field names.
func (es *EventService) eventUpdates(input models.UpdateEventInput) (map[string]interface{}, []string, error) {
	updates := map[string]interface{}{}
	var changed []string
	set := func(col string, v interface{}) {
		updates[col] = v
		changed = append(changed, col)
	}

	if input.Title != nil {
		v, err := requireText("title", *input.Title)
		if err != nil {
			return nil, nil, err
		}
		set("title", helpers.Truncate(v, models.MaxTitleLength))
	}
	if input.Description != nil {
		v, err := requireText("description", *input.Description)
		if err != nil {
			return nil, nil, err
		}
		set("description", v)
	}
	if input.Date != nil {
		date, err := es.futureDate(*input.Date)
		if err != nil {
			return nil, nil, err
		}
		set("date", date)
	}
	if input.Location != nil {
		v, err := requireText("location", *input.Location)
		if err != nil {
			return nil, nil, err
		}
		set("location", helpers.Truncate(v, models.MaxLocationLength))
	}
	if input.Category != nil {
		c := strings.ToLower(strings.TrimSpace(*input.Category))
		if !models.IsValidCategory(c) {
			return nil, nil, apperrors.NewValidationError("category", "category must be one of: "+strings.Join(models.EventCategories, ", "))
		}
		set("category", c)
	}
	if input.Price != nil {
		set("price", normalizePrice(input.Price))
	}
	if input.Image != nil {
		img := strings.TrimSpace(*input.Image)
		if img == "" {
			set("image", nil)
		} else {
			set("image", img)
		}
	}
	if input.IsPublic != nil {
		set("is_public", *input.IsPublic)
	}
	if input.AllowComments != nil {
		set("allow_comments", *input.AllowComments)
	}
	if input.AllowSharing != nil {
		set("allow_sharing", *input.AllowSharing)
	}
	if input.MaxAttendees != nil {
		if err := checkMaxAttendees(input.MaxAttendees); err != nil {
			return nil, nil, err
		}
		set("max_attendees", *input.MaxAttendees)
	}

	if len(updates) == 0 {
		return nil, nil, apperrors.NewValidationError("", "no fields to update")
	}
	return updates, changed, nil
}

func (es *EventService) UpdateEvent(ctx context.Context, id, actorID int64, input models.UpdateEventInput) (*models.EventView, error) {
	if _, err := es.loadOwnedEvent(ctx, id, actorID); err != nil {
		return nil, err
	}
	updates, changed, err := es.eventUpdates(input)
	if err != nil {
		return nil, err
	}

	activity := &models.EventActivity{
		UserID:       actorID,
		ActivityType: models.ActivityUpdated,
		Data:         activityData(map[string][]string{"fields": changed}),
	}
	if _, err := es.eventsRepo.UpdateEventWithActivity(ctx, id, updates, activity); err != nil {
		return nil, err
	}
	es.logger.Info("event updated", "event_id", id, "fields", changed)
	return es.GetEvent(ctx, id, &actorID)
}

func (es *EventService) DeleteEvent(ctx context.Context, id, actorID int64) error {
	if _, err := es.loadOwnedEvent(ctx, id, actorID); err != nil {
		return err
	}
	if err := es.eventsRepo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	es.logger.Info("event deleted", "event_id", id)
	return nil
}

func (es *EventService) JoinEvent(ctx context.Context, id, userID int64) (*models.EventView, error) {
	joined, err := es.eventsRepo.AddParticipant(ctx, id, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrEventFull) {
			es.metrics.RecordJoin("full")
		}
		return nil, err
	}
	if joined {
		es.metrics.RecordJoin("joined")
		es.logger.Info("event joined", "event_id", id, "user_id", userID)
	} else {
		es.metrics.RecordJoin("already_joined")
	}
	return es.GetEvent(ctx, id, &userID)
}

func (es *EventService) LeaveEvent(ctx context.Context, id, userID int64) (*models.EventView, error) {
	left, err := es.eventsRepo.RemoveParticipant(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if left {
		es.logger.Info("event left", "event_id", id, "user_id", userID)
	}
	return es.GetEvent(ctx, id, &userID)
}

// ListActivities returns the newest activities first.
func (es *EventService) ListActivities(ctx context.Context, id int64, limit int) ([]models.EventActivity, error) {
	exists, err := es.eventsRepo.EventExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewResourceNotFoundError("event not found")
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	return es.eventsRepo.ListActivities(ctx, id, limit)
}
