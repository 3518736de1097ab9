package models

import "time"

// StationRecord is one provider observation as exported by the upstream
// scrapers (validated_<provider>.json). Read once per sync run, never persisted
// directly.
type StationRecord struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Image        string     `json:"image"`
	StreamURL    string     `json:"stream_url"`
	Countries    []string   `json:"countries"`
	Genres       []string   `json:"genres"`
	Languages    []string   `json:"languages"`
	Status       string     `json:"status"`
	Codec        string     `json:"codec,omitempty"`
	Bitrate      int        `json:"bitrate,omitempty"`
	SampleRate   int        `json:"sample_rate,omitempty"`
	LastTestedAt *time.Time `json:"last_tested_at,omitempty"`
}
