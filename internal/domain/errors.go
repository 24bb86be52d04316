package domain

import "errors"

var (
	// ErrStayNotFound covers both a missing stay and a stay owned by
	// someone else; callers cannot tell the two apart.
	ErrStayNotFound       = errors.New("stay not found")
	ErrActiveReservation  = errors.New("stay has an active reservation")
	ErrInvalidID          = errors.New("invalid id")
	ErrStayNameRequired   = errors.New("stay name required")
	ErrAddressRequired    = errors.New("stay address required")
	ErrInvalidGuestNumber = errors.New("guest number must be positive")
	// ErrStoreContention surfaces a serialization abort from the store.
	// The caller decides whether to retry; this service never does.
	ErrStoreContention = errors.New("store contention, try again")
)
