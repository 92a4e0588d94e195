package service

import "errors"

var (
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("action not allowed in the current session state")
	ErrInvalidMinutes    = errors.New("minutes must be between 1 and 1440")
	ErrInvalidProfile    = errors.New("invalid profile")
)
