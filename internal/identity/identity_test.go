package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURLStripsVolatileParams(t *testing.T) {
	got := NormalizeURL("http://stream.example.com/live?token=abc123&bitrate=128&session_id=xyz")
	assert.Equal(t, "http://stream.example.com/live?bitrate=128", got)
}

func TestNormalizeURLSortsParams(t *testing.T) {
	a := NormalizeURL("http://stream.example.com/live?b=2&a=1")
	b := NormalizeURL("http://stream.example.com/live?a=1&b=2")
	assert.Equal(t, a, b)
	assert.Equal(t, "http://stream.example.com/live?a=1&b=2", a)
}

func TestNormalizeURLTrailingSlash(t *testing.T) {
	assert.Equal(t, "http://stream.example.com", NormalizeURL("http://stream.example.com/"))
	assert.Equal(t, "http://stream.example.com/live", NormalizeURL("http://stream.example.com/live/"))
}

func TestNormalizeURLMalformedFallsBackToTrimmedRaw(t *testing.T) {
	assert.Equal(t, "not a url at all", NormalizeURL("  not a url at all  "))
	assert.Equal(t, "", NormalizeURL("   "))
}

func TestNormalizeURLIdempotent(t *testing.T) {
	urls := []string{
		"http://stream.example.com/live?token=abc&b=2&a=1",
		"https://radio.example.org:8000/mount/?sid=55",
		"http://stream.example.com/",
		"garbage input",
		"http://h/?uid=1&uuid=2&auth=3&expires=4&hash=5&keep=yes",
	}
	for _, u := range urls {
		once := NormalizeURL(u)
		assert.Equal(t, once, NormalizeURL(once), "not idempotent for %q", u)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Jazz FM 101":        "jazz-fm-101",
		"  Radio  Paradise ": "radio-paradise",
		"BBC Radio 6 Music!": "bbc-radio-6-music",
		"Café del Mar":       "caf-del-mar",
		"a - b":              "a-b",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugDeterministic(t *testing.T) {
	s1 := Slug("Jazz FM", "http://stream.example.com/jazz")
	s2 := Slug("Jazz FM", "http://stream.example.com/jazz")
	require.Equal(t, s1, s2)
	assert.Regexp(t, `^jazz-fm-[0-9a-z]{5}$`, s1)

	// A different identity yields a different suffix.
	s3 := Slug("Jazz FM", "http://stream.example.com/other")
	assert.NotEqual(t, s1, s3)
}
