// Package service drives provider batches through the catalog store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sunoh/radiovault/internal/identity"
	"github.com/sunoh/radiovault/internal/models"
	"github.com/sunoh/radiovault/internal/store"
)

// Default tunables for Reconcile. 100 stations are applied to the store in
// parallel at a time; progress is reported every 500 processed.
const (
	DefaultWindowSize    = 100
	DefaultProgressEvery = 500
)

// Summary aggregates the outcome of one reconciliation run.
type Summary struct {
	Provider string `json:"provider"`
	Total    int    `json:"total"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Failed   int    `json:"failed"`
}

// ProgressFunc receives cumulative counts during a run. It is purely
// observational and must not affect outcomes.
type ProgressFunc func(processed, total, inserted, updated, failed int)

// Options tunes a reconciliation run. The zero value applies defaults.
type Options struct {
	WindowSize    int          // concurrent upserts per window; default 100
	ProgressEvery int          // report cadence in records; default 500
	Progress      ProgressFunc // optional; also invoked at completion
}

// Reconcile merges a provider's station records into the catalog. Records are
// split into fixed-size windows; within a window each record is applied
// concurrently through one atomic store upsert, so a record's outcome depends
// only on the store state at the instant of its own statement, never on
// sibling ordering. Windows run strictly in sequence, bounding in-flight
// concurrency to the window size.
//
// A per-record failure (constraint violation, rejected data) is counted and
// logged but never aborts the run. A store-level failure (store.ErrUnavailable
// or context cancellation) aborts the whole run and is returned alongside the
// counts gathered so far. An empty batch is a zero-summary no-op.
func Reconcile(ctx context.Context, s store.Store, provider string, records []models.StationRecord, opts Options) (Summary, error) {
	sum := Summary{Provider: provider, Total: len(records)}
	if provider == "" {
		return sum, fmt.Errorf("provider name is required")
	}
	if len(records) == 0 {
		return sum, nil
	}

	windowSize := opts.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	progressEvery := opts.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}

	processed := 0
	for start := 0; start < len(records); start += windowSize {
		end := start + windowSize
		if end > len(records) {
			end = len(records)
		}
		window := records[start:end]

		type outcome struct {
			created bool
			err     error
		}
		results := make([]outcome, len(window))

		var wg sync.WaitGroup
		for i := range window {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				st := candidate(provider, window[i])
				created, err := s.UpsertStation(ctx, &st)
				results[i] = outcome{created: created, err: err}
			}(i)
		}
		wg.Wait()

		// The window has fully drained; tally it before the next one starts.
		var fatal error
		for i, res := range results {
			switch {
			case res.err == nil:
				if res.created {
					sum.Inserted++
				} else {
					sum.Updated++
				}
			case errors.Is(res.err, store.ErrUnavailable) || ctx.Err() != nil:
				if fatal == nil {
					fatal = res.err
				}
			default:
				sum.Failed++
				log.Printf("sync %s: station %q: %v", provider, window[i].Name, res.err)
			}
		}
		if fatal != nil {
			return sum, fmt.Errorf("sync %s aborted: %w", provider, fatal)
		}

		processed += len(window)
		if opts.Progress != nil && (processed%progressEvery == 0 || processed == len(records)) {
			opts.Progress(processed, len(records), sum.Inserted, sum.Updated, sum.Failed)
		}
	}

	return sum, nil
}

// candidate builds the catalog candidate for one provider observation:
// derives the dedup key and slug, and normalizes optional fields so the merge
// policy can treat them as "no information" when absent.
func candidate(provider string, rec models.StationRecord) models.Station {
	normalized := identity.NormalizeURL(rec.StreamURL)

	status := rec.Status
	if status == "" {
		status = models.StatusUntested
	}
	codec := rec.Codec
	if codec == "unknown" {
		codec = ""
	}

	return models.Station{
		Name:          rec.Name,
		Slug:          identity.Slug(rec.Name, normalized),
		ImageURL:      rec.Image,
		StreamURL:     rec.StreamURL,
		NormalizedURL: normalized,
		Providers:     map[string]string{provider: rec.ID},
		Countries:     rec.Countries,
		Genres:        rec.Genres,
		Languages:     rec.Languages,
		Status:        status,
		Codec:         codec,
		Bitrate:       rec.Bitrate,
		SampleRate:    rec.SampleRate,
		LastTestedAt:  rec.LastTestedAt,
	}
}
