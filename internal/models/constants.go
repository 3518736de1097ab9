package models

// Playback status values reported by providers and stored on stations.
const (
	StatusUntested = "untested"
	StatusWorking  = "working"
	StatusBroken   = "broken"
)

// BrokenThreshold is the number of consecutive non-working reports after which
// an unverified station is marked broken.
const BrokenThreshold = 3
