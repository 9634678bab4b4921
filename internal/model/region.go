package model

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Region is a circular geofence. ID, Center and Radius are fixed at
// creation; Inside is the last known containment state and is mutated
// only by registry evaluation.
type Region struct {
	ID     string     `json:"id"`
	Center Coordinate `json:"center"`
	Radius float64    `json:"radius_meters"`
	Inside bool       `json:"inside"`
}
