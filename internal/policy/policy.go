// Package policy holds the station merge rules as a pure function. The
// Postgres store executes the same rules as a single ON CONFLICT clause so
// concurrent merges stay atomic; Resolve is the reference form used by the
// in-memory store and the tests. The two must stay in sync.
package policy

import (
	"strings"

	"github.com/sunoh/radiovault/internal/models"
)

// Resolve decides the resulting catalog row for an incoming provider
// observation. With no existing row the incoming station is taken as-is (with
// a zero failure count). Otherwise fields are resolved one by one:
//
//   - stream_url and last_tested_at: incoming always wins (freshest playable URL)
//   - providers and tag sets: union, never shrinking
//   - name: incoming wins only when strictly longer
//   - image_url: incoming wins only when it upgrades to https
//   - failure_count: reset on a working report, incremented otherwise
//   - status: frozen when verified; working on a working report; broken after
//     three consecutive failures; otherwise unchanged
//   - codec: frozen when verified; otherwise incoming when present
//
// is_verified, slug, and normalized_url are never altered by a merge. Note the
// verified freeze covers status and codec only: a verified station's playable
// URL, name, and tags still merge normally.
func Resolve(existing *models.Station, incoming models.Station) models.Station {
	if existing == nil {
		out := incoming
		out.FailureCount = 0
		return out
	}

	out := *existing

	out.StreamURL = incoming.StreamURL
	out.Providers = mergeProviders(existing.Providers, incoming.Providers)
	out.Countries = unionStrings(existing.Countries, incoming.Countries)
	out.Genres = unionStrings(existing.Genres, incoming.Genres)
	out.Languages = unionStrings(existing.Languages, incoming.Languages)

	if len(incoming.Name) > len(existing.Name) {
		out.Name = incoming.Name
	}
	if strings.HasPrefix(incoming.ImageURL, "https") && !strings.HasPrefix(existing.ImageURL, "https") {
		out.ImageURL = incoming.ImageURL
	}

	// failure_count first: the status rule depends on the new count, not the
	// stored one.
	if incoming.Status == models.StatusWorking {
		out.FailureCount = 0
	} else {
		out.FailureCount = existing.FailureCount + 1
	}

	switch {
	case existing.IsVerified:
		out.Status = existing.Status
	case incoming.Status == models.StatusWorking:
		out.Status = models.StatusWorking
	case out.FailureCount >= models.BrokenThreshold:
		out.Status = models.StatusBroken
	default:
		out.Status = existing.Status
	}

	if !existing.IsVerified && incoming.Codec != "" {
		out.Codec = incoming.Codec
	}

	out.LastTestedAt = incoming.LastTestedAt

	return out
}

// mergeProviders unions two provider maps; incoming overwrites the id for
// providers present in both.
func mergeProviders(existing, incoming map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// unionStrings appends values from add that are not already in base,
// preserving base order. The result is always a superset of base.
func unionStrings(base, add []string) []string {
	seen := make(map[string]struct{}, len(base))
	out := make([]string, 0, len(base)+len(add))
	for _, v := range base {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range add {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
