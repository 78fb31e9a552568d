package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusblog/internal/app/controllers"
	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/middleware"
	"github.com/yigit/campusblog/internal/pkg/validation"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth    *controllers.AuthController
	User    *controllers.UserController
	Post    *controllers.PostController
	Comment *controllers.CommentController
	Event   *controllers.EventController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	validation.RegisterGinValidators()

	// API version group
	v1 := router.Group("/api/v1")

	// Every route resolves the caller when a token is sent; protected routes require it
	v1.Use(authMiddleware.OptionalAuth())
	requireAuth := authMiddleware.JWTAuth()
	requireAdmin := authMiddleware.AdminRequired()

	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/logout", requireAuth, ctrl.Auth.Logout)
	}

	users := v1.Group("/users")
	{
		users.GET("", ctrl.User.ListUsers)
		users.GET("/me", requireAuth, ctrl.User.GetProfile)
		users.PUT("/me", requireAuth, ctrl.User.UpdateProfile)
		users.GET("/:id", ctrl.User.GetUserByID)

		// Administrator routes
		users.PUT("/:id/verification", requireAuth, requireAdmin, ctrl.User.SetVerification)
		users.DELETE("/:id", requireAuth, requireAdmin, ctrl.User.DeleteUser)
	}

	posts := v1.Group("/posts")
	{
		posts.GET("", ctrl.Post.ListPosts)
		posts.GET("/user/:id", ctrl.Post.ListPostsByUser)
		posts.GET("/:id", ctrl.Post.GetPost)
		posts.GET("/:id/likes", ctrl.Post.GetLikers)
		posts.GET("/:id/summary", ctrl.Post.RegenerateSummary)

		posts.POST("", requireAuth, ctrl.Post.CreatePost)
		posts.PUT("/:id", requireAuth, ctrl.Post.UpdatePost)
		posts.DELETE("/:id", requireAuth, ctrl.Post.DeletePost)
		posts.POST("/like/:id", requireAuth, ctrl.Post.ToggleLike)
	}

	comments := v1.Group("/comment")
	{
		comments.GET("/post/:postId", ctrl.Comment.ListComments)
		comments.POST("", requireAuth, ctrl.Comment.CreateComment)
		comments.DELETE("/:id", requireAuth, ctrl.Comment.DeleteComment)
	}

	events := v1.Group("/event")
	{
		events.GET("", ctrl.Event.ListEvents)
		events.GET("/user/:id", ctrl.Event.ListEventsByUser)
		events.GET("/:id", ctrl.Event.GetEvent)
		events.GET("/:id/attendees", ctrl.Event.GetAttendees)

		events.POST("", requireAuth, ctrl.Event.CreateEvent)
		events.PUT("/:id", requireAuth, ctrl.Event.UpdateEvent)
		events.DELETE("/:id", requireAuth, ctrl.Event.DeleteEvent)
		events.POST("/register/:id", requireAuth, ctrl.Event.Register)
		events.DELETE("/register/:id", requireAuth, ctrl.Event.Unregister)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
}
