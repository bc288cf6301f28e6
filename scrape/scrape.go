package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dialysisfind/dedup"
	"dialysisfind/location"

	"go.uber.org/zap"
)

// ReadFacilities loads a JSON array of scraped records. Elements that do not
// decode (for example a latitude given as text) are logged and skipped so a
// single bad record does not abort the batch.
func ReadFacilities(path string, logger *zap.Logger) ([]dedup.FacilityRecord, error) {
	payload, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("scrape: %s is not a JSON array: %w", path, err)
	}

	records := make([]dedup.FacilityRecord, 0, len(raw))
	for i, item := range raw {
		var rec dedup.FacilityRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			logger.Warn("Skipping malformed facility record",
				zap.String("file", path),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCenters loads a file previously written by WriteCenters.
func ReadCenters(path string) ([]dedup.MergedCenter, error) {
	payload, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var centers []dedup.MergedCenter
	if err := json.Unmarshal(payload, &centers); err != nil {
		return nil, fmt.Errorf("scrape: decode %s: %w", path, err)
	}
	return centers, nil
}

// WriteCenters writes centers as an indented JSON array, replacing path
// atomically.
func WriteCenters(path string, centers []dedup.MergedCenter) error {
	if centers == nil {
		centers = []dedup.MergedCenter{}
	}
	payload, err := json.MarshalIndent(centers, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// StateFromFilename maps "negeri-sembilan.json" to the display name of the
// state, using the table when the slug is known.
func StateFromFilename(table *location.Table, path string) string {
	base := filepath.Base(path)
	slug := location.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
	return table.ResolveDisplayNames(slug, "").State
}

// StateFiles lists the *.json files directly under dir.
func StateFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	return files, nil
}
