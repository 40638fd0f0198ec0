package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotPending        = errors.New("not pending")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidOdds       = errors.New("invalid odds")
	ErrInvalidResult     = errors.New("invalid result")
	ErrInvalidCounter    = errors.New("invalid counter")
	ErrUnsupportedAsset  = errors.New("unsupported asset")
	ErrInvalidSelection  = errors.New("invalid selection")

	// ErrAlreadyResolved é a forma de NotPending para apostas
	ErrAlreadyResolved = fmt.Errorf("bet already resolved: %w", ErrNotPending)
)
