package services

import "errors"

var (
	// ErrSnapshotUnavailable is returned before the first successful load.
	ErrSnapshotUnavailable = errors.New("no data snapshot loaded")
	// ErrReloadInProgress is returned when a reload is requested while one runs.
	ErrReloadInProgress = errors.New("reload already in progress")
	// ErrInvalidCredentials is returned by a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput wraps request fields the pipeline cannot interpret.
	ErrInvalidInput = errors.New("invalid input")
)
