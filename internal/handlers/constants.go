package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgBodyTooLarge       = "Request body too large"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidDecisionID  = "Invalid decision ID"
	ErrMsgInvalidUserID      = "Invalid user ID"
	ErrMsgInvalidCommentID   = "Invalid comment ID"
)

