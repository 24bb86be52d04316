package domain

// Location holds geocoded coordinates for a stay, keyed by stay ID.
// At most one location exists per stay.
type Location struct {
	StayID    string
	Latitude  float64
	Longitude float64
}
