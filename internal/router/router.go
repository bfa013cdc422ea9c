package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"redsocial/internal/handlers"
	"redsocial/internal/middleware"
	"redsocial/internal/observability"
	"redsocial/internal/services"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Reactions *services.ReactionService
	Comments  *services.CommentService
	Posts     *services.PostService
	Users     *services.UserService
	Profiles  *services.ProfileProvider

	Logger      *slog.Logger
	Metrics     *observability.Metrics
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter

	UploadDir    string
	UploadPrefix string
}

// New builds the engine with the global middleware chain and every route.
func New(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		otelgin.Middleware("redsocial"),
		middleware.RequestLogger(deps.Logger),
		middleware.Metrics(deps.Metrics),
		middleware.SecureHeaders(),
	)
	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	// Handlers
	authHandler := handlers.NewAuthHandler(deps.Users)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Profiles)
	postHandler := handlers.NewPostHandler(deps.Posts)
	reactionHandler := handlers.NewReactionHandler(deps.Reactions)
	commentHandler := handlers.NewCommentHandler(deps.Comments)

	r.GET("/health", handlers.Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(observability.Handler(deps.Gatherer)))
	}
	if deps.UploadDir != "" && deps.UploadPrefix != "" {
		r.Static(deps.UploadPrefix, deps.UploadDir)
	}

	api := r.Group("/api")
	api.Use(deps.RateLimiter.Middleware())
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		api.GET("/users/:id", userHandler.Profile)
		api.PUT("/users/:id", userHandler.UpdateProfile)
		api.PUT("/users/:id/avatar", userHandler.UpdateAvatar)

		api.GET("/posts", postHandler.List)
		api.POST("/posts", postHandler.Create)
		api.GET("/posts/favorites/:userId", postHandler.Favorites)
		api.PUT("/posts/:id", postHandler.Update)
		api.DELETE("/posts/:id", postHandler.Delete)
	}

	reactions := api.Group("/reactions")
	{
		reactions.POST("/post/:id", reactionHandler.React)
		reactions.POST("/favorite/:id", reactionHandler.Favorite)
		reactions.GET("/state/:postId/:userId", reactionHandler.State)
	}

	comments := api.Group("/comments")
	{
		comments.POST("", commentHandler.Create)
		comments.GET("/post/:postId", commentHandler.ListByPost)
		comments.POST("/like/:commentId", commentHandler.ToggleLike)
		comments.GET("/likes/user/:userId/post/:postId", commentHandler.LikedByUser)
		comments.DELETE("/:commentId", commentHandler.Delete)
	}
}
