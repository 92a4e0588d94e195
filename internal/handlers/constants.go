package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrStorageUnavailable  = "Storage temporarily unavailable"

	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 64 << 10
)
