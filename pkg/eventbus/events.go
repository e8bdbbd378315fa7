package eventbus

import "time"

// ETARequestedData is emitted when an async ETA prediction job is accepted.
type ETARequestedData struct {
	JobID        string    `json:"job_id"`
	OriginLat    float64   `json:"origin_lat"`
	OriginLng    float64   `json:"origin_lng"`
	DestLat      float64   `json:"dest_lat"`
	DestLng      float64   `json:"dest_lng"`
	TrafficLevel float64   `json:"traffic_level"`
	RequestedAt  time.Time `json:"requested_at"`
}

// ETACompletedData is emitted when an ETA prediction job finishes successfully.
type ETACompletedData struct {
	JobID       string    `json:"job_id"`
	ETASeconds  float64   `json:"eta_seconds"`
	Confidence  float64   `json:"confidence"`
	CompletedAt time.Time `json:"completed_at"`
}

// ETAFailedData is emitted when an ETA prediction job fails.
type ETAFailedData struct {
	JobID    string    `json:"job_id"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// FareQuotedData is emitted after a fare quote is served.
type FareQuotedData struct {
	Fare       float64   `json:"fare"`
	DistanceKm float64   `json:"distance_km"`
	Currency   string    `json:"currency"`
	QuotedAt   time.Time `json:"quoted_at"`
}
