// Package loader reads validated provider exports from the metadata directory.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sunoh/radiovault/internal/models"
)

// FileName returns the export file name for a provider, optionally qualified
// by country: validated_<provider>.json or
// validated_<provider>_<Country_with_underscores>.json.
func FileName(provider, country string) string {
	if country == "" {
		return fmt.Sprintf("validated_%s.json", provider)
	}
	return fmt.Sprintf("validated_%s_%s.json", provider, strings.ReplaceAll(country, " ", "_"))
}

// Load reads one provider export from dir and decodes its station records.
// A missing file surfaces as an fs.ErrNotExist-wrapping error so callers can
// treat it as an empty batch rather than a failure.
func Load(dir, provider, country string) ([]models.StationRecord, error) {
	path := filepath.Join(dir, FileName(provider, country))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []models.StationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
