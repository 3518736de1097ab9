package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunoh/radiovault/internal/models"
)

func TestMemorySlugCollisionIsHardInsertFailure(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := &models.Station{Name: "Jazz", Slug: "jazz-aaaaa", StreamURL: "http://s/1", NormalizedURL: "http://s/1", Status: models.StatusWorking}
	created, err := m.UpsertStation(ctx, a)
	require.NoError(t, err)
	assert.True(t, created)

	// Different identity, same slug: rejected like the DB unique constraint.
	b := &models.Station{Name: "Jazz", Slug: "jazz-aaaaa", StreamURL: "http://s/2", NormalizedURL: "http://s/2", Status: models.StatusWorking}
	_, err = m.UpsertStation(ctx, b)
	assert.Error(t, err)
}

func TestMemoryUpsertMergesExisting(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := &models.Station{
		Name: "Jazz", Slug: "jazz-aaaaa", StreamURL: "http://s/1?x=1", NormalizedURL: "http://s/1",
		Countries: []string{"US"}, Status: models.StatusWorking,
		Providers: map[string]string{"orb": "1"},
	}
	created, err := m.UpsertStation(ctx, a)
	require.NoError(t, err)
	require.True(t, created)

	b := &models.Station{
		Name: "Jazz Radio", Slug: "jazz-radio-bbbbb", StreamURL: "http://s/1?x=2", NormalizedURL: "http://s/1",
		Countries: []string{"GB"}, Status: models.StatusWorking,
		Providers: map[string]string{"mytuner": "2"},
	}
	created, err = m.UpsertStation(ctx, b)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := m.GetStationBySlug(ctx, "jazz-aaaaa")
	require.NoError(t, err)
	assert.Equal(t, "Jazz Radio", got.Name)
	assert.ElementsMatch(t, []string{"US", "GB"}, got.Countries)
	assert.Len(t, got.Providers, 2)
}
