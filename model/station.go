package model

import "github.com/paulmach/orb"

// Station is a fixed-location bike dock with finite capacity and a mutable
// bike count. Identity and capacity are set once at load time; only Bikes
// changes during a run, and only through TakeBike/ReturnBike.
type Station struct {
	ID            int
	Position      orb.Point // lon/lat
	Capacity      int
	Bikes         int
	Neighbourhood string
}

// HasBike reports whether at least one bike is docked.
func (s *Station) HasBike() bool { return s.Bikes > 0 }

// HasSpace reports whether at least one dock is free.
func (s *Station) HasSpace() bool { return s.Bikes < s.Capacity }

// TakeBike removes one bike if available. It returns false without
// modifying the station when the station is empty; an empty station is an
// expected condition, not an error.
func (s *Station) TakeBike() bool {
	if !s.HasBike() {
		return false
	}
	s.Bikes--
	return true
}

// ReturnBike docks one bike if a slot is free. It returns false without
// modifying the station when the station is full.
func (s *Station) ReturnBike() bool {
	if !s.HasSpace() {
		return false
	}
	s.Bikes++
	return true
}
