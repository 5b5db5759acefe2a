package dto

import "errors"

// Replay errors
var (
	ErrMissingScript  = errors.New("replay script is required")
	ErrMissingStore   = errors.New("document store is required")
	ErrInvalidConfig  = errors.New("invalid replay configuration")
	ErrReplayFailed   = errors.New("script replay failed")
	ErrReplayTimeout  = errors.New("script replay timeout")
	ErrReplayStopped  = errors.New("script replay stopped")
	ErrStepFailed     = errors.New("step failed")
	ErrReplayNotFound = errors.New("replay not found")
)
