package dedup

import (
	"maps"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultThresholdKm is the distance under which two records are
	// considered the same site.
	DefaultThresholdKm = 0.1

	earthRadiusKm = 6371.0
)

// Haversine returns the great-circle distance in kilometers between two
// points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ExtractUnit returns the text after the first comma of a facility name,
// e.g. "Pusat Dialisis Kajang, HD" -> "HD".
func ExtractUnit(name string) (string, bool) {
	_, unit, found := strings.Cut(name, ",")
	if !found {
		return "", false
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "", false
	}
	return unit, true
}

// Deduplicate merges records that lie closer than thresholdKm to an already
// accepted center. Matching is first-match in acceptance order, not nearest
// match, so the output depends on input order. A non-positive threshold
// disables distance merging.
func Deduplicate(records []FacilityRecord, thresholdKm float64) []MergedCenter {
	merged := make([]MergedCenter, 0, len(records))
	seen := map[string]struct{}{}

	for _, rec := range records {
		if match := findMatch(merged, rec, thresholdKm); match >= 0 {
			if unit, ok := ExtractUnit(rec.Name); ok {
				merged[match].addUnit(unit)
			}
			continue
		}

		key, hasKey := coordinateKey(rec)
		if hasKey {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		center := MergedCenter{FacilityRecord: rec}
		center.Fields = maps.Clone(rec.Fields)
		if unit, ok := ExtractUnit(rec.Name); ok {
			center.Units = []string{unit}
		}
		merged = append(merged, center)
	}
	return merged
}

func findMatch(merged []MergedCenter, rec FacilityRecord, thresholdKm float64) int {
	for i := range merged {
		d := Haversine(rec.Latitude, rec.Longitude, merged[i].Latitude, merged[i].Longitude)
		if d < thresholdKm {
			return i
		}
	}
	return -1
}

func (c *MergedCenter) addUnit(unit string) {
	for _, u := range c.Units {
		if u == unit {
			return
		}
	}
	c.Units = append(c.Units, unit)
}

// coordinateKey identifies an exact coordinate pair. Records without finite
// coordinates get no key and are always accepted.
func coordinateKey(rec FacilityRecord) (string, bool) {
	if !isFinite(rec.Latitude) || !isFinite(rec.Longitude) {
		return "", false
	}
	return strconv.FormatFloat(rec.Longitude, 'g', -1, 64) + "," +
		strconv.FormatFloat(rec.Latitude, 'g', -1, 64), true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
