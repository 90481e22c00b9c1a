package container

import (
	"log/slog"

	"github.com/bako110/Anniv/internal/config"
	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/metrics"
	"github.com/bako110/Anniv/internal/middleware"
	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/services"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Logger  *slog.Logger
	Config  *config.Config
	Metrics *metrics.Metrics

	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	DB             *gorm.DB

	Profiles       *models.MongodbRepo
	TokenValidator *helpers.TokenValidator
	Auth           *middleware.Authenticator

	UserService    *services.UserService
	EventService   *services.EventService
	CommentService *services.CommentService
	ProfileService *services.ProfileService
	MessageService *services.MessageService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	m *metrics.Metrics,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	db *gorm.DB,
) *Container {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient)
	mongo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)
	sql := models.GormNewRepo(db)

	var images helpers.ImageStore
	if cfg.StorageBucket != "" && supabaseClient != nil && supabaseClient.Storage != nil {
		images = helpers.NewSupabaseImageStore(supabaseClient.Storage, cfg.StorageBucket)
	} else {
		images = helpers.NewLocalImageStore(cfg.UploadDir)
	}

	validator := helpers.NewTokenValidator(cfg.SupabaseURL, cfg.JWTSecret)

	userService := services.NewUserService(supa, sql, mongo, logger)
	eventService := services.NewEventService(sql, mongo, images, m, logger)
	commentService := services.NewCommentService(sql, sql, mongo, m, logger)
	profileService := services.NewProfileService(mongo, sql, logger)
	messageService := services.NewMessageService(sql, sql, mongo, m, logger)

	return &Container{
		Logger:         logger,
		Config:         cfg,
		Metrics:        m,
		SupabaseClient: supabaseClient,
		MongoDBClient:  mongoDBClient,
		DB:             db,
		Profiles:       mongo,
		TokenValidator: validator,
		Auth:           middleware.NewAuthenticator(validator, userService, cfg.IsProduction(), logger),
		UserService:    userService,
		EventService:   eventService,
		CommentService: commentService,
		ProfileService: profileService,
		MessageService: messageService,
	}
}
