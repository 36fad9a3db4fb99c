package chatclient

import "errors"

var (
	ErrDuplicateCommand  = errors.New("command already registered")
	ErrUnknownCommand    = errors.New("command not registered")
	ErrDuplicateListener = errors.New("listener already registered")
	ErrUnknownListener   = errors.New("listener not registered")

	ErrUncomparableListener = errors.New("listener type is not comparable")

	ErrAuthFailed       = errors.New("twitch authentication failed")
	ErrHandshakeTimeout = errors.New("timeout waiting for end of greeting")
	ErrAlreadyRunning   = errors.New("client already running")
	ErrNotConnected     = errors.New("not connected")
)
