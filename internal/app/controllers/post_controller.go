package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/app/services"
	"github.com/yigit/campusblog/internal/middleware"
)

// PostController handles post-related operations
type PostController struct {
	postService services.PostService
	logger      zerolog.Logger
}

// NewPostController creates a new PostController
func NewPostController(postService services.PostService, logger zerolog.Logger) *PostController {
	return &PostController{
		postService: postService,
		logger:      logger,
	}
}

// ListPosts lists posts
// @Summary List posts
// @Description Lists posts newest first, optionally filtered by title, content or author name
// @Tags posts
// @Produce json
// @Param search query string false "Case-insensitive search text"
// @Success 200 {object} dto.APIResponse{data=[]models.Post} "Posts retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /posts [get]
func (c *PostController) ListPosts(ctx *gin.Context) {
	var filter dto.PostFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	posts, err := c.postService.ListPosts(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(posts))
}

// ListPostsByUser lists the posts of one user
// @Summary List posts by author
// @Tags posts
// @Produce json
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.Post} "Posts retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /posts/user/{id} [get]
func (c *PostController) ListPostsByUser(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	posts, err := c.postService.ListPostsByAuthor(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(posts))
}

// CreatePost creates a post authored by the caller
// @Summary Create post
// @Description Creates a post. Its AI summary is generated in the background.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.APIResponse{data=models.Post} "Post created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /posts [post]
func (c *PostController) CreatePost(ctx *gin.Context) {
	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.postService.CreatePost(ctx.Request.Context(), middleware.CurrentUser(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(post))
}

// GetPost returns a post with its author, likes and comments
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Post} "Post retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [get]
func (c *PostController) GetPost(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	post, err := c.postService.GetPost(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// UpdatePost edits a post
// @Summary Update post
// @Description Author or administrator only. Changing title or content regenerates the summary.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID" Format(int64) minimum(1)
// @Param request body dto.UpdatePostRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Post} "Post updated"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [put]
func (c *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.postService.UpdatePost(ctx.Request.Context(), middleware.CurrentUser(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// DeletePost removes a post with its comments and likes
// @Summary Delete post
// @Description Author or administrator only
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=string} "Post deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [delete]
func (c *PostController) DeletePost(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.postService.DeletePost(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("Post deleted successfully"))
}

// ToggleLike likes or unlikes a post for the caller
// @Summary Toggle like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Post} "Like toggled"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/like/{id} [post]
func (c *PostController) ToggleLike(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	post, err := c.postService.ToggleLike(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// GetLikers lists the users who like a post
// @Summary List likers
// @Tags posts
// @Produce json
// @Param id path int true "Post ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.User} "Likers retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/likes [get]
func (c *PostController) GetLikers(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	users, err := c.postService.Likers(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// RegenerateSummary summarizes a post synchronously
// @Summary Regenerate summary
// @Tags posts
// @Produce json
// @Param id path int true "Post ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Post} "Summary regenerated"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Failure 502 {object} dto.ErrorResponse "Summary service unavailable"
// @Router /posts/{id}/summary [get]
func (c *PostController) RegenerateSummary(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	post, err := c.postService.RegenerateSummary(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}
