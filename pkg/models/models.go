package models

import (
	"fmt"
)

// Coordinate is an immutable latitude/longitude pair. Use NewCoordinate to
// enforce the bounds invariant.
type Coordinate struct {
	Lat float64 `json:"lat" binding:"latitude"`
	Lng float64 `json:"lng" binding:"longitude"`
}

// NewCoordinate validates bounds and returns a Coordinate.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return Coordinate{}, fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// Valid reports whether the coordinate satisfies the bounds invariant.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// RideRequest is the validated input to the prediction pipeline. It is
// created per incoming request and never mutated.
type RideRequest struct {
	Origin            Coordinate
	Destination       Coordinate
	Timestamp         string // ISO-8601
	TrafficLevel      float64
	HistoricalMeanETA *float64
	UserID            string
}

// FareQuote is a derived, cacheable pricing result.
type FareQuote struct {
	Fare       float64 `json:"fare"`
	DistanceKm float64 `json:"distance_km"`
	Currency   string  `json:"currency"`
}

// ETAEstimate is a derived, cacheable arrival-time estimate.
type ETAEstimate struct {
	ETASeconds int     `json:"eta_seconds"`
	Confidence float64 `json:"confidence"`
}
