package domain

import "time"

// Stay is a rentable listing published by a host. The host is an opaque
// username reference; identity management lives outside this service.
type Stay struct {
	ID          string
	Name        string
	Address     string
	Description string
	GuestNumber int
	Host        string
	// Images holds blob-store URLs in the order the images were submitted.
	Images    []string
	CreatedAt time.Time
}
