package model

import "time"

// Action identifies the direction of a geofence transition.
type Action string

const (
	ActionEnter Action = "enter"
	ActionExit  Action = "exit"
)

// Event records a single detected geofence transition. Events are
// immutable once created.
type Event struct {
	ID        string     `json:"id"`
	RegionID  string     `json:"region_id"`
	Action    Action     `json:"action"`
	Position  Coordinate `json:"position"`
	Timestamp time.Time  `json:"timestamp"`
}
