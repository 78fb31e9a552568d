package dto

// CreateCommentRequest represents a new comment on a post
type CreateCommentRequest struct {
	PostID  int64  `json:"postId" binding:"required,min=1" example:"1"`
	Content string `json:"content" binding:"required,notblank,max=2000" example:"Great tips!"`
}
