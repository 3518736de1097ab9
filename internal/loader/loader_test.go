package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `[
  {
    "id": "orb-123",
    "name": "Jazz FM",
    "image": "https://img.example.com/jazz.png",
    "stream_url": "http://stream.example.com/jazz?token=abc",
    "countries": ["US"],
    "genres": ["jazz"],
    "languages": ["en"],
    "status": "working",
    "codec": "mp3",
    "bitrate": 128,
    "sample_rate": 44100,
    "last_tested_at": "2026-08-01T12:00:00Z"
  }
]`

func TestFileName(t *testing.T) {
	assert.Equal(t, "validated_orb.json", FileName("orb", ""))
	assert.Equal(t, "validated_orb_United_States.json", FileName("orb", "United States"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "validated_orb.json"), []byte(sampleExport), 0o644))

	records, err := Load(dir, "orb", "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "orb-123", rec.ID)
	assert.Equal(t, "Jazz FM", rec.Name)
	assert.Equal(t, "http://stream.example.com/jazz?token=abc", rec.StreamURL)
	assert.Equal(t, []string{"jazz"}, rec.Genres)
	assert.Equal(t, 128, rec.Bitrate)
	require.NotNil(t, rec.LastTestedAt)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "orb", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "validated_orb.json"), []byte("{not json"), 0o644))

	_, err := Load(dir, "orb", "")
	assert.Error(t, err)
}
