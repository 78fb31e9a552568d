package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/app/services"
	"github.com/yigit/campusblog/internal/middleware"
)

// CommentController handles comment-related operations
type CommentController struct {
	commentService services.CommentService
	logger         zerolog.Logger
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService services.CommentService, logger zerolog.Logger) *CommentController {
	return &CommentController{
		commentService: commentService,
		logger:         logger,
	}
}

// CreateComment adds a comment to a post
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=models.Comment} "Comment created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /comment [post]
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req dto.CreateCommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.commentService.CreateComment(ctx.Request.Context(), middleware.CurrentUser(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(comment))
}

// ListComments lists the comments of a post oldest first
// @Summary List comments of a post
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.Comment} "Comments retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /comment/post/{postId} [get]
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := middleware.ParseIDParam(ctx, "postId")
	if !ok {
		return
	}

	comments, err := c.commentService.ListComments(ctx.Request.Context(), postID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(comments))
}

// DeleteComment removes a comment
// @Summary Delete comment
// @Description Author or administrator only
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=string} "Comment deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Comment not found"
// @Router /comment/{id} [delete]
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.commentService.DeleteComment(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("Comment deleted successfully"))
}
