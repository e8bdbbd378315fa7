package eta

import (
	"fmt"
	"math"
	"time"

	"github.com/rapidride/prediction-service/pkg/models"
)

// zoneSize is the grid cell size in degrees used to bucket coordinates.
const zoneSize = 0.1

// FeatureVector maps feature names to values. The prediction engine
// reconciles it against the model's declared schema by name, so extra
// entries are ignored and missing ones read as zero.
type FeatureVector map[string]float64

// BaseFeatureNames is the canonical feature ordering. historical_mean_eta
// is appended only when the request carries it.
var BaseFeatureNames = []string{
	"distance_km",
	"traffic_level",
	"hour",
	"day_of_week",
	"is_weekend",
	"is_rush_hour",
	"origin_zone_lat",
	"origin_zone_lng",
	"dest_zone_lat",
	"dest_zone_lng",
}

// TimeFeatures captures the calendar signals derived from a request
// timestamp. day_of_week counts Monday as 0 through Sunday as 6.
type TimeFeatures struct {
	Hour       int
	DayOfWeek  int
	IsWeekend  int
	IsRushHour int
	Month      int
	Day        int
}

// defaultTimeFeatures is substituted whenever the timestamp is missing or
// unparseable. A midweek noon is a deliberately unremarkable slot.
func defaultTimeFeatures() TimeFeatures {
	return TimeFeatures{
		Hour:       12,
		DayOfWeek:  2,
		IsWeekend:  0,
		IsRushHour: 0,
		Month:      1,
		Day:        1,
	}
}

// timestampLayouts are tried in order. Zone-less ISO-8601 timestamps are
// accepted and read as local time.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
}

// ExtractTimeFeatures parses an ISO-8601 timestamp into calendar features.
// Bad input never fails a prediction; it falls back to the default slot.
func ExtractTimeFeatures(timestamp string) TimeFeatures {
	if timestamp == "" {
		return defaultTimeFeatures()
	}

	var t time.Time
	var err error
	for _, layout := range timestampLayouts {
		if t, err = time.Parse(layout, timestamp); err == nil {
			break
		}
	}
	if err != nil {
		return defaultTimeFeatures()
	}

	hour := t.Hour()
	dayOfWeek := (int(t.Weekday()) + 6) % 7 // Monday = 0

	isWeekend := 0
	if dayOfWeek >= 5 {
		isWeekend = 1
	}

	isRushHour := 0
	if (hour >= 7 && hour <= 10) || (hour >= 17 && hour <= 20) {
		isRushHour = 1
	}

	return TimeFeatures{
		Hour:       hour,
		DayOfWeek:  dayOfWeek,
		IsWeekend:  isWeekend,
		IsRushHour: isRushHour,
		Month:      int(t.Month()),
		Day:        t.Day(),
	}
}

// ZoneOf buckets a coordinate into its grid cell indices.
func ZoneOf(c models.Coordinate) (zoneLat, zoneLng float64) {
	return math.Floor(c.Lat / zoneSize), math.Floor(c.Lng / zoneSize)
}

// ZoneID returns the string identifier of a coordinate's grid cell.
func ZoneID(c models.Coordinate) string {
	zoneLat, zoneLng := ZoneOf(c)
	return fmt.Sprintf("%d_%d", int(zoneLat), int(zoneLng))
}

// BuildFeatureVector assembles the model input from a validated request and
// the precomputed trip distance.
func BuildFeatureVector(req *models.RideRequest, distanceKm float64) FeatureVector {
	tf := ExtractTimeFeatures(req.Timestamp)
	originZoneLat, originZoneLng := ZoneOf(req.Origin)
	destZoneLat, destZoneLng := ZoneOf(req.Destination)

	features := FeatureVector{
		"distance_km":     distanceKm,
		"traffic_level":   req.TrafficLevel,
		"hour":            float64(tf.Hour),
		"day_of_week":     float64(tf.DayOfWeek),
		"is_weekend":      float64(tf.IsWeekend),
		"is_rush_hour":    float64(tf.IsRushHour),
		"origin_zone_lat": originZoneLat,
		"origin_zone_lng": originZoneLng,
		"dest_zone_lat":   destZoneLat,
		"dest_zone_lng":   destZoneLng,
	}

	if req.HistoricalMeanETA != nil {
		features["historical_mean_eta"] = *req.HistoricalMeanETA
	}

	return features
}
