package service

import "errors"

var (
	ErrSessionRunning = errors.New("session already running")
	ErrNoSource       = errors.New("no audio source")
	ErrNotFound       = errors.New("not found")
)
