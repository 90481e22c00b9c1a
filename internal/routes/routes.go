package routes

import (
	"github.com/bako110/Anniv/internal/container"
	"github.com/bako110/Anniv/internal/handlers"
	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.Metrics(container.Metrics))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/static", helpers.StaticRoot(cfg.UploadDir))

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "anniv-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.Signup(container.UserService))
		v1.POST("/login", handlers.Login(container.UserService, secure))
		v1.POST("/refresh", handlers.RefreshSession(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(secure))
	}

	auth := container.Auth

	// event reads are public; a signed-in caller gets is_participant
	public := v1.Group("/")
	public.Use(auth.Optional())
	{
		public.GET("/events", handlers.ListEvents(container.EventService))
		public.GET("/events/:id", handlers.GetEvent(container.EventService))
		public.GET("/events/:id/comments", handlers.GetComments(container.CommentService))
		public.GET("/events/:id/activities", handlers.ListEventActivities(container.EventService))
	}

	protected := v1.Group("/")
	protected.Use(auth.Required())

	protected.GET("/me", handlers.Me(container.UserService))

	userRoutes := protected.Group("/users")
	{
		userRoutes.PATCH("/me/profile", handlers.UpdateMyProfile(container.ProfileService))
		userRoutes.PUT("/me/status", handlers.SetMyStatus(container.ProfileService))
		userRoutes.GET("/search", handlers.SearchUsers(container.ProfileService))
		userRoutes.GET("/:id", handlers.GetUser(container.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(container.UserService))
		userRoutes.DELETE("/:id", handlers.DeleteUser(container.UserService, secure))
		userRoutes.GET("/:id/profile", handlers.GetProfile(container.ProfileService))
		userRoutes.GET("/:id/friends", handlers.ListFriends(container.ProfileService))
		userRoutes.GET("/:id/followers", handlers.ListFollowers(container.ProfileService))
		userRoutes.GET("/:id/status", handlers.GetStatus(container.ProfileService))
		userRoutes.POST("/:id/follow", handlers.Follow(container.ProfileService))
		userRoutes.DELETE("/:id/follow", handlers.Unfollow(container.ProfileService))
	}

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("", handlers.CreateEvent(container.EventService))
		eventRoutes.PATCH("/:id", handlers.UpdateEvent(container.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService))
		eventRoutes.POST("/:id/join", handlers.JoinEvent(container.EventService))
		eventRoutes.POST("/:id/leave", handlers.LeaveEvent(container.EventService))
		eventRoutes.POST("/:id/comments", handlers.AddComment(container.CommentService))
	}

	commentRoutes := protected.Group("/comments")
	{
		commentRoutes.PATCH("/:id", handlers.UpdateComment(container.CommentService))
		commentRoutes.DELETE("/:id", handlers.DeleteComment(container.CommentService))
	}

	conversationRoutes := protected.Group("/conversations")
	{
		conversationRoutes.POST("", handlers.CreateConversation(container.MessageService))
		conversationRoutes.GET("", handlers.ListConversations(container.MessageService))
		conversationRoutes.GET("/:id/messages", handlers.ListMessages(container.MessageService))
		conversationRoutes.POST("/:id/messages", handlers.SendMessage(container.MessageService))
		conversationRoutes.POST("/:id/read", handlers.MarkConversationRead(container.MessageService))
	}

	return r
}
