package models

import "time"

// Station is one canonical catalog row: a single physical stream, merged from
// every provider that has ever reported it. NormalizedURL is the deduplication
// anchor and never changes once assigned.
type Station struct {
	ID            int64             `json:"id,omitempty"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	ImageURL      string            `json:"image_url,omitempty"`
	StreamURL     string            `json:"stream_url"`
	NormalizedURL string            `json:"normalized_url,omitempty"`
	Providers     map[string]string `json:"providers,omitempty"` // provider name -> provider-local id
	Countries     []string          `json:"countries"`
	Genres        []string          `json:"genres"`
	Languages     []string          `json:"languages"`
	Status        string            `json:"status"`
	Codec         string            `json:"codec,omitempty"`
	Bitrate       int               `json:"bitrate,omitempty"`
	SampleRate    int               `json:"sample_rate,omitempty"`
	FailureCount  int               `json:"failure_count"`
	IsVerified    bool              `json:"is_verified"`
	LastTestedAt  *time.Time        `json:"last_tested_at,omitempty"`
	CreatedAt     *time.Time        `json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `json:"updated_at,omitempty"`
}
