package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sunoh/radiovault/internal/models"
	"github.com/sunoh/radiovault/internal/policy"
)

// Memory is an in-process Store keyed by normalized URL. Each upsert applies
// policy.Resolve under one mutex, so it gives the same atomicity guarantee as
// the Postgres ON CONFLICT statement. Used by tests and local development.
type Memory struct {
	mu       sync.Mutex
	byURL    map[string]*models.Station
	bySlug   map[string]string // slug -> normalized URL
	nextID   int64
	failWith error // when set, every operation fails with this error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byURL:  make(map[string]*models.Station),
		bySlug: make(map[string]string),
		nextID: 1,
	}
}

// FailWith makes every subsequent operation return err (nil restores normal
// operation). Lets tests simulate an unusable store.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// UpsertStation inserts or merges a station atomically.
func (m *Memory) UpsertStation(_ context.Context, st *models.Station) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}

	existing := m.byURL[st.NormalizedURL]
	if existing == nil {
		// Slug uniqueness is a hard insert failure, like the DB constraint.
		if _, taken := m.bySlug[st.Slug]; taken {
			return false, fmt.Errorf("slug %q already exists: unique constraint violation", st.Slug)
		}
		created := policy.Resolve(nil, *st)
		created.ID = m.nextID
		m.nextID++
		now := time.Now()
		created.CreatedAt = &now
		created.UpdatedAt = &now
		m.byURL[created.NormalizedURL] = &created
		m.bySlug[created.Slug] = created.NormalizedURL
		st.ID = created.ID
		return true, nil
	}

	merged := policy.Resolve(existing, *st)
	now := time.Now()
	merged.UpdatedAt = &now
	m.byURL[merged.NormalizedURL] = &merged
	st.ID = merged.ID
	return false, nil
}

// GetStationBySlug returns a single station by slug.
func (m *Memory) GetStationBySlug(_ context.Context, slug string) (*models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	url, ok := m.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	st := *m.byURL[url]
	return &st, nil
}

// ListStations returns stations matching the filter, name-ordered.
func (m *Memory) ListStations(_ context.Context, filter StationFilter) ([]models.Station, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}

	var matched []models.Station
	for _, st := range m.byURL {
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		if filter.Country != "" && !contains(st.Countries, filter.Country) {
			continue
		}
		if filter.Genre != "" && !contains(st.Genres, filter.Genre) {
			continue
		}
		if filter.Language != "" && !contains(st.Languages, filter.Language) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(st.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *st)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if filter.Offset >= len(matched) {
		return []models.Station{}, total, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// SetStationVerified sets the protective flag on a station.
func (m *Memory) SetStationVerified(_ context.Context, stationID int64, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, st := range m.byURL {
		if st.ID == stationID {
			st.IsVerified = verified
			return nil
		}
	}
	return ErrNotFound
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
