package model

import "github.com/paulmach/orb"

// Route is one entry of the station-to-station route table: the cycling
// leg between an ordered pair of stations.
type Route struct {
	DistanceKm  float64
	DurationMin float64
	Geometry    orb.LineString // may be nil when no geometry is known
}

// TripRecord is the durable record of one successful journey, appended to
// the trip log when the user reaches their destination.
type TripRecord struct {
	UserID int `json:"user_id"`

	UserOrigin      orb.Point `json:"user_origin"`
	OriginStation   orb.Point `json:"origin_station"`
	DestStation     orb.Point `json:"dest_station"`
	UserDestination orb.Point `json:"user_destination"`

	OriginStationID int `json:"origin_station_id"`
	DestStationID   int `json:"dest_station_id"`

	WalkingKm float64 `json:"walking_km"`
	CyclingKm float64 `json:"cycling_km"`

	Geometry orb.LineString `json:"route_geometry,omitempty"`

	// Simulated start time and total door-to-door duration, in minutes
	// since simulated midnight, for hour-bucketed reporting.
	StartMinute    float64 `json:"start_minute"`
	DurationMinute float64 `json:"duration_minute"`
}
