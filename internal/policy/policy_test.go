package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunoh/radiovault/internal/models"
)

func existing() *models.Station {
	return &models.Station{
		Name:          "Jazz",
		Slug:          "jazz-abc12",
		ImageURL:      "http://img.example.com/jazz.png",
		StreamURL:     "http://stream.example.com/jazz",
		NormalizedURL: "http://stream.example.com/jazz",
		Providers:     map[string]string{"orb": "orb-1"},
		Countries:     []string{"US"},
		Genres:        []string{"jazz"},
		Languages:     []string{"en"},
		Status:        models.StatusWorking,
		Codec:         "mp3",
		FailureCount:  0,
	}
}

func incoming() models.Station {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return models.Station{
		Name:         "Jazz",
		ImageURL:     "http://img.example.com/jazz2.png",
		StreamURL:    "http://stream.example.com/jazz?fresh=1",
		Providers:    map[string]string{"mytuner": "mt-9"},
		Countries:    []string{"GB"},
		Genres:       []string{"jazz", "smooth jazz"},
		Languages:    []string{"en", "fr"},
		Status:       models.StatusWorking,
		Codec:        "aac",
		LastTestedAt: &ts,
	}
}

func TestResolveFirstSeenCopiesIncoming(t *testing.T) {
	in := incoming()
	out := Resolve(nil, in)
	assert.Equal(t, in.StreamURL, out.StreamURL)
	assert.Equal(t, in.Providers, out.Providers)
	assert.Equal(t, 0, out.FailureCount)
}

func TestResolveStreamURLAlwaysReplaced(t *testing.T) {
	in := incoming()
	out := Resolve(existing(), in)
	assert.Equal(t, in.StreamURL, out.StreamURL)
	assert.Equal(t, in.LastTestedAt, out.LastTestedAt)
}

func TestResolveTagUnionsAreMonotonic(t *testing.T) {
	e := existing()
	out := Resolve(e, incoming())

	assert.Subset(t, out.Countries, e.Countries)
	assert.Subset(t, out.Genres, e.Genres)
	assert.Subset(t, out.Languages, e.Languages)

	assert.ElementsMatch(t, []string{"US", "GB"}, out.Countries)
	assert.ElementsMatch(t, []string{"jazz", "smooth jazz"}, out.Genres)
	assert.ElementsMatch(t, []string{"en", "fr"}, out.Languages)
}

func TestResolveProvidersUnion(t *testing.T) {
	out := Resolve(existing(), incoming())
	assert.Equal(t, map[string]string{"orb": "orb-1", "mytuner": "mt-9"}, out.Providers)

	// Same provider reporting again overwrites only its own id.
	in := incoming()
	in.Providers = map[string]string{"orb": "orb-2"}
	out = Resolve(existing(), in)
	assert.Equal(t, map[string]string{"orb": "orb-2"}, out.Providers)
}

func TestResolveNameLongerWins(t *testing.T) {
	in := incoming()
	in.Name = "Jazz FM 101"
	out := Resolve(existing(), in)
	assert.Equal(t, "Jazz FM 101", out.Name)

	// Shorter (or equal) incoming name leaves the existing one.
	e := existing()
	e.Name = "Jazz FM 101"
	in.Name = "Jazz"
	out = Resolve(e, in)
	assert.Equal(t, "Jazz FM 101", out.Name)
}

func TestResolveImageUpgradesToHTTPSOnly(t *testing.T) {
	in := incoming()
	in.ImageURL = "https://img.example.com/jazz.png"
	out := Resolve(existing(), in)
	assert.Equal(t, in.ImageURL, out.ImageURL)

	// Existing already https: incoming never replaces it.
	e := existing()
	e.ImageURL = "https://img.example.com/old.png"
	out = Resolve(e, in)
	assert.Equal(t, e.ImageURL, out.ImageURL)

	// Plain http incoming never replaces.
	in.ImageURL = "http://img.example.com/new.png"
	out = Resolve(existing(), in)
	assert.Equal(t, existing().ImageURL, out.ImageURL)
}

func TestResolveWorkingResetsFailureCount(t *testing.T) {
	e := existing()
	e.FailureCount = 2
	e.Status = models.StatusUntested

	out := Resolve(e, incoming())
	assert.Equal(t, 0, out.FailureCount)
	assert.Equal(t, models.StatusWorking, out.Status)
}

func TestResolveFailureEscalatesToBroken(t *testing.T) {
	e := existing()
	e.FailureCount = 2

	in := incoming()
	in.Status = models.StatusBroken
	out := Resolve(e, in)
	require.Equal(t, 3, out.FailureCount)
	assert.Equal(t, models.StatusBroken, out.Status)

	// Below the threshold the stored status is kept.
	e.FailureCount = 0
	in.Status = models.StatusUntested
	out = Resolve(e, in)
	assert.Equal(t, 1, out.FailureCount)
	assert.Equal(t, e.Status, out.Status)
}

func TestResolveVerifiedFreezesStatusAndCodec(t *testing.T) {
	e := existing()
	e.IsVerified = true
	e.FailureCount = 2

	in := incoming()
	in.Status = models.StatusBroken
	in.Codec = "ogg"

	out := Resolve(e, in)
	assert.Equal(t, e.Status, out.Status)
	assert.Equal(t, e.Codec, out.Codec)
	assert.True(t, out.IsVerified)

	// The freeze does not extend to stream_url, name, or tags.
	assert.Equal(t, in.StreamURL, out.StreamURL)
	assert.Contains(t, out.Countries, "GB")
}

func TestResolveEmptyCodecLeavesExisting(t *testing.T) {
	in := incoming()
	in.Codec = ""
	out := Resolve(existing(), in)
	assert.Equal(t, "mp3", out.Codec)
}

func TestResolveIdentityFieldsNeverChange(t *testing.T) {
	e := existing()
	out := Resolve(e, incoming())
	assert.Equal(t, e.Slug, out.Slug)
	assert.Equal(t, e.NormalizedURL, out.NormalizedURL)
}
