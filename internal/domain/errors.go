package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrUnauthenticated     = errors.New("user not authenticated with twitch")
	ErrValidation          = errors.New("invalid parameters")
	ErrAmbiguousResolution = errors.New("no outcome label matches the match result")
	ErrCycleInProgress     = errors.New("check cycle already in progress")
	ErrLockHeld            = errors.New("lock already held")
	ErrOwnershipMismatch   = errors.New("account does not belong to this user")
)
