package identity

import (
	"crypto/sha256"
	"encoding/binary"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// volatileParams are query parameters that change between observations of the
// same stream (sessions, auth tokens, tracking ids, timestamps). They are
// stripped by exact name match before the URL is used as a dedup key.
var volatileParams = []string{
	"token", "session_id", "sid", "uid", "uuid", "auth", "expires",
	"timestamp", "time", "key", "hash", "signature", "sign",
	"tracker", "client_id", "user_id", "h", "t", "session", "player",
}

// NormalizeURL derives the deduplication key for a stream URL: volatile query
// parameters removed, remaining parameters sorted by key, a single trailing
// slash stripped. Normalization never fails; an unparseable URL degrades to
// the trimmed raw string. Idempotent.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	q := u.Query()
	for _, p := range volatileParams {
		q.Del(p)
	}
	// url.Values.Encode sorts by key, giving deterministic parameter order.
	u.RawQuery = q.Encode()
	return strings.TrimSuffix(u.String(), "/")
}

var (
	reSpaces  = regexp.MustCompile(`\s+`)
	reNonWord = regexp.MustCompile(`[^\w-]+`)
	reHyphens = regexp.MustCompile(`--+`)
)

// Slugify turns a station name into lowercase hyphen-separated word characters.
// It makes no uniqueness guarantee on its own; see Slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reSpaces.ReplaceAllString(s, "-")
	s = reNonWord.ReplaceAllString(s, "")
	s = reHyphens.ReplaceAllString(s, "-")
	return s
}

// Slug builds the display identifier for a station: the slugified name plus a
// short suffix derived from the normalized URL. Deriving the suffix from the
// identity (rather than randomly) makes slugs reproducible across sync runs:
// the same stream always maps to the same slug, and two streams collide only
// if both their slugified names and their URL hashes collide. A residual
// collision surfaces as a unique-constraint failure at the store.
func Slug(name, normalizedURL string) string {
	return Slugify(name) + "-" + slugSuffix(normalizedURL)
}

// slugSuffix returns 5 base-36 characters derived from the normalized URL.
func slugSuffix(normalizedURL string) string {
	sum := sha256.Sum256([]byte(normalizedURL))
	n := binary.BigEndian.Uint32(sum[:4])
	s := strconv.FormatUint(uint64(n), 36)
	for len(s) < 5 {
		s = "0" + s
	}
	return s[:5]
}
