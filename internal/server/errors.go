package server

import "errors"

// Server-specific errors
var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRateLimited          = errors.New("too many uploads")
	ErrInvalidTeam          = errors.New("invalid team id")
	ErrCodeTooLarge         = errors.New("code exceeds size limit")
)
