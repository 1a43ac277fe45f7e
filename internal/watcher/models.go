package watcher

import (
	"strconv"
)

const (
	// BucketID is the stable id of the watcher's event stream.
	BucketID = "aw-watcher-network"
	// ClientName identifies this watcher to the event-store.
	ClientName = "aw-watcher-network"
	// BucketType is the event type tag of the bucket.
	BucketType = "currently-playing"
)

// Candidate is one geolocation returned by a location provider.
type Candidate struct {
	Longitude float64
	Latitude  float64
	// Accuracy radius in meters, 0 when unknown.
	Accuracy float64
	Address  string
}

// Sample is the location chosen for a single tick.
type Sample struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Address   string  `json:"address"`
}

// Location renders the sample's coordinates as "<longitude>,<latitude>".
func (s Sample) Location() string {
	return FormatLocation(s.Longitude, s.Latitude)
}

// Data returns the flat string payload stored with the event.
func (s Sample) Data() map[string]any {
	return map[string]any{
		"location": s.Location(),
		"address":  s.Address,
	}
}

// FormatLocation joins longitude and latitude with a comma using the
// shortest decimal form that round-trips, without rounding or exponents.
func FormatLocation(lng, lat float64) string {
	return strconv.FormatFloat(lng, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
}

// OutcomeKind classifies a sampling attempt.
type OutcomeKind int

const (
	OutcomeFound OutcomeKind = iota
	OutcomeEmpty
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeEmpty:
		return "empty"
	default:
		return "error"
	}
}

// Outcome is the result of one sampling attempt. Sample is set only for
// OutcomeFound and Err only for OutcomeError.
type Outcome struct {
	Kind   OutcomeKind
	Sample Sample
	Err    error
}
