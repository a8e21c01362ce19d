package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStaleStatus       = errors.New("stale status")
	ErrAlreadyRefunded   = errors.New("already refunded")
)
