package model

import "github.com/paulmach/orb"

// User is a single trip request: someone who appeared at Origin and wants
// to end up at Destination. Users exist only for the duration of their
// trip; afterwards only the trip outcome is retained.
type User struct {
	ID          int
	Origin      orb.Point
	Destination orb.Point

	// POI categories the endpoints were sampled from, kept for reporting.
	OriginType      string
	DestinationType string
}
