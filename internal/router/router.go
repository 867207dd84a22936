package router

import (
	"log"

	"github.com/echowall/backend/internal/handlers"
	"github.com/echowall/backend/internal/middleware"
	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/realtime"
	"github.com/echowall/backend/internal/repositories"
	"github.com/echowall/backend/internal/service"
	"github.com/echowall/backend/pkg/cache"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, rdb *redis.Client, hub *realtime.Hub) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Like{},
		&models.Collect{},
		&models.Follow{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database("echowall"))
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	collectRepo := repositories.NewPostgresCollectRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	messageRepo := repositories.NewPostgresMessageRepository(pgdb)

	// --- Cache and services ---
	store := cache.NewStore(rdb)
	notifier := service.NewNotifier(messageRepo, hub, store)
	interactions := service.NewInteractionService(postRepo, likeRepo, collectRepo, followRepo, commentRepo, userRepo, notifier, store)
	inbox := service.NewInboxService(messageRepo, userRepo, postRepo, store)

	// Health check - always accessible
	healthHandler := handlers.NewHealthHandler(hub)
	healthHandler.RegisterHealthRoutes(e)

	// Websocket endpoint; identity arrives over the socket, not via JWT
	e.GET("/ws", realtime.ServeWS(hub))
	log.Println("Websocket route configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	api.Use(cache.Middleware(store, cache.DefaultPolicies(), middleware.UserIDFromContext))
	log.Println("JWT authentication and cache middleware applied to /api/v1 group.")

	// Post and feed routes
	postHandler := handlers.NewPostHandler(interactions, postRepo, userRepo)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Like routes
	likeHandler := handlers.NewLikeHandler(interactions, likeRepo, postRepo)
	likeHandler.RegisterLikeRoutes(api)
	log.Println("Like routes configured.")

	// Collect routes
	collectHandler := handlers.NewCollectHandler(interactions, collectRepo, postRepo)
	collectHandler.RegisterCollectRoutes(api)
	log.Println("Collect routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(interactions, followRepo)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(interactions)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Inbox routes
	messageHandler := handlers.NewMessageHandler(inbox)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, followRepo)
	userHandler.RegisterUserRoutes(api)
	log.Println("User profile routes configured.")

	// Cache admin routes
	admin := e.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware())
	cacheAdminHandler := handlers.NewCacheAdminHandler(store)
	cacheAdminHandler.RegisterCacheAdminRoutes(admin)
	log.Println("Cache admin routes configured.")

	log.Println("All routes configured.")
}
