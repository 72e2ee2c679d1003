package web

import "github.com/totally-not-vj/tempo-traffic-control/internal/traffic"

// IndexResponse is the payload for the root route.
type IndexResponse struct {
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// CountsJSON is the JSON representation of per-direction counts.
type CountsJSON struct {
	North int `json:"north"`
	South int `json:"south"`
	East  int `json:"east"`
	West  int `json:"west"`
}

func countsJSON(c traffic.Counts) CountsJSON {
	return CountsJSON{
		North: c.North,
		South: c.South,
		East:  c.East,
		West:  c.West,
	}
}

// CountsResponse is the payload for /get_counts.
type CountsResponse struct {
	Counts         CountsJSON `json:"counts"`
	Signal         string     `json:"signal"`
	ManualOverride bool       `json:"manual_override"`
	Timestamp      int64      `json:"timestamp"`
	TotalVehicles  int        `json:"total_vehicles"`
}

// OverrideResponse is the payload for successful override operations.
type OverrideResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	CurrentSignal  string `json:"current_signal"`
	ManualOverride bool   `json:"manual_override"`
}

// ErrorResponse is the payload for rejected requests.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SignalTimingJSON reports the green-time policy constants.
type SignalTimingJSON struct {
	MaxGreenTime float64 `json:"max_green_time"`
	MinGreenTime float64 `json:"min_green_time"`
}

// SystemStatusResponse is the payload for /system_status.
type SystemStatusResponse struct {
	DetectionActive      bool             `json:"detection_active"`
	ManualOverride       bool             `json:"manual_override"`
	CurrentSignal        string           `json:"current_signal"`
	Uptime               float64          `json:"uptime"`
	TotalVehicles        int              `json:"total_vehicles"`
	HighTrafficThreshold int              `json:"high_traffic_threshold"`
	SignalTiming         SignalTimingJSON `json:"signal_timing"`
}
