package scrape

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"dialysisfind/dedup"
	"dialysisfind/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReadFacilities_SkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selangor.json")
	payload := `[
		{"name": "A, HD", "latitude": 3.1, "longitude": 101.6, "phone": "03-1"},
		{"name": "B, HD", "latitude": "3.2", "longitude": 101.6},
		{"name": "C"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	records, err := ReadFacilities(path, zap.New(core))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "A, HD", records[0].Name)
	assert.Equal(t, "C", records[1].Name)
	assert.True(t, math.IsNaN(records[1].Latitude))
	assert.Equal(t, 1, logs.FilterMessage("Skipping malformed facility record").Len())
}

func TestReadFacilities_NotAnArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"A"}`), 0o644))

	_, err := ReadFacilities(path, zap.NewNop())
	assert.Error(t, err)
}

func TestWriteAndReadCenters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "kedah.json")
	centers := []dedup.MergedCenter{
		{FacilityRecord: dedup.FacilityRecord{Name: "A, HD", Latitude: 6.12, Longitude: 100.37}, Units: []string{"HD"}},
		{FacilityRecord: dedup.FacilityRecord{Name: "B", Latitude: math.NaN(), Longitude: math.NaN()}},
	}
	require.NoError(t, WriteCenters(path, centers))

	got, err := ReadCenters(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"HD"}, got[0].Units)
	assert.Equal(t, 6.12, got[0].Latitude)
	assert.True(t, math.IsNaN(got[1].Latitude))
	assert.Empty(t, got[1].Units)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteCenters_RemovesTempOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "kedah.json")
	// A non-empty directory at the target makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(target, "occupied"), 0o755))

	err := WriteCenters(target, []dedup.MergedCenter{{FacilityRecord: dedup.FacilityRecord{Name: "Klinik Jitra"}}})
	require.Error(t, err)

	_, statErr := os.Stat(target + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestStateFromFilename(t *testing.T) {
	table := location.DefaultTable()
	assert.Equal(t, "Negeri Sembilan", StateFromFilename(table, "/data/negeri-sembilan.json"))
	assert.Equal(t, "Kuala Lumpur", StateFromFilename(table, "Kuala Lumpur.json"))
	assert.Equal(t, "Unknown Land", StateFromFilename(table, "unknown-land.json"))
}
