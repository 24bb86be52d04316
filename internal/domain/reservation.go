package domain

import "time"

// Reservation is a guest booking against a stay. Dates carry day
// resolution only (checkin/checkout are DATE columns).
type Reservation struct {
	ID           string
	StayID       string
	Guest        string
	CheckinDate  time.Time
	CheckoutDate time.Time
}
