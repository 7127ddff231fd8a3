package utils

import "errors"

// Common application errors used across the console.
var (
	ErrInvalidToken     = errors.New("INVALID_TOKEN")
	ErrSessionNotFound  = errors.New("SESSION_NOT_FOUND")
	ErrNoSession        = errors.New("NO_SESSION")
	ErrInvalidID        = errors.New("INVALID_ID")
	ErrEmptySelection   = errors.New("EMPTY_SELECTION")
	ErrInvalidStatus    = errors.New("INVALID_STATUS")
	ErrInvalidRole      = errors.New("INVALID_ROLE")
	ErrStatusTransition = errors.New("INVALID_STATUS_TRANSITION")
	ErrCategoryCycle    = errors.New("CATEGORY_CYCLE")
	ErrInvalidQuantity  = errors.New("INVALID_QUANTITY")
	ErrInvalidAmount    = errors.New("INVALID_AMOUNT")
	ErrInvalidPage      = errors.New("INVALID_PAGE")
)
