package model

import "time"

// VisitStats holds a user's durable visit statistics. AverageDurationSecs
// is the running arithmetic mean of all completed visit durations; no raw
// history is kept anywhere.
type VisitStats struct {
	AverageDurationSecs int64      `json:"average_duration_secs"`
	VisitCount          int64      `json:"visit_count"`
	EntranceTime        *time.Time `json:"entrance_time,omitempty"`
}
