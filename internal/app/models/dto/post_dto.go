package dto

// CreatePostRequest represents a new post
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,notblank,max=200" example:"Finals survival guide"`
	Content string `json:"content" binding:"required,notblank,max=20000" example:"Sleep, then study."`
}

// UpdatePostRequest edits a post. Omitted fields are kept.
type UpdatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,notblank,max=200"`
	Content *string `json:"content" binding:"omitempty,notblank,max=20000"`
}

// PostFilterRequest represents post listing parameters
type PostFilterRequest struct {
	Search string `form:"search"`
}
