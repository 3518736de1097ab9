package store

import (
	"context"
	"errors"

	"github.com/sunoh/radiovault/internal/models"
)

// ErrNotFound is returned by lookups when no station matches.
var ErrNotFound = errors.New("not found")

// ErrUnavailable marks a store-level failure (connection loss, pool exhaustion)
// as opposed to a per-record data rejection. Callers running a batch must abort
// on it instead of counting it as a record failure.
var ErrUnavailable = errors.New("store unavailable")

// Store defines persistence for the deduplicated station catalog.
type Store interface {
	// UpsertStation inserts the station keyed by its normalized URL, or merges
	// it into the existing row per the merge policy. The whole operation is a
	// single atomic statement; created reports whether a new row was made.
	UpsertStation(ctx context.Context, st *models.Station) (created bool, err error)

	// GetStationBySlug returns a single station by slug.
	GetStationBySlug(ctx context.Context, slug string) (*models.Station, error)

	// ListStations returns stations matching the filter and the total count
	// (before limit/offset).
	ListStations(ctx context.Context, filter StationFilter) ([]models.Station, int, error)

	// SetStationVerified sets the protective flag on a station. While set, the
	// merge policy cannot change the station's status or codec.
	SetStationVerified(ctx context.Context, stationID int64, verified bool) error
}

// StationFilter holds optional filters for listing stations.
type StationFilter struct {
	Country  string // matches any element of the countries array
	Genre    string // matches any element of the genres array
	Language string // matches any element of the languages array
	Status   string // exact status match; empty = any
	Search   string // case-insensitive substring match on station name
	Limit    int    // default 50, max 200
	Offset   int
}
