package dedup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// FacilityRecord is one raw scraped entry. Coordinates that are missing or
// null in the source decode to NaN so they never match anything by distance.
// Every other key is kept in Fields and written back untouched.
type FacilityRecord struct {
	Name      string
	Latitude  float64
	Longitude float64
	Fields    map[string]json.RawMessage
}

// MergedCenter is the canonical record kept for one physical site.
type MergedCenter struct {
	FacilityRecord
	Units []string
}

func (r *FacilityRecord) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Name = ""
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &r.Name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
		delete(raw, "name")
	}

	var err error
	if r.Latitude, err = decodeCoordinate(raw, "latitude"); err != nil {
		return err
	}
	if r.Longitude, err = decodeCoordinate(raw, "longitude"); err != nil {
		return err
	}

	if len(raw) == 0 {
		raw = nil
	}
	r.Fields = raw
	return nil
}

func (r FacilityRecord) MarshalJSON() ([]byte, error) {
	return marshalRecord(r, nil, false)
}

func (c MergedCenter) MarshalJSON() ([]byte, error) {
	units := c.Units
	if units == nil {
		units = []string{}
	}
	return marshalRecord(c.FacilityRecord, units, true)
}

func (c *MergedCenter) UnmarshalJSON(data []byte) error {
	if err := c.FacilityRecord.UnmarshalJSON(data); err != nil {
		return err
	}
	c.Units = nil
	if v, ok := c.Fields["units"]; ok {
		if err := json.Unmarshal(v, &c.Units); err != nil {
			return fmt.Errorf("units: %w", err)
		}
		delete(c.Fields, "units")
	}
	return nil
}

func decodeCoordinate(raw map[string]json.RawMessage, key string) (float64, error) {
	v, ok := raw[key]
	if !ok {
		return math.NaN(), nil
	}
	delete(raw, key)
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return math.NaN(), nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func marshalRecord(r FacilityRecord, units []string, withUnits bool) ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["name"] = r.Name
	out["latitude"] = finiteOrNil(r.Latitude)
	out["longitude"] = finiteOrNil(r.Longitude)
	if withUnits {
		out["units"] = units
	}
	return json.Marshal(out)
}

func finiteOrNil(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
