package location

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// AllStates is the placeholder row used by the search filter. It never
	// produces a route.
	AllStates = "All States"
	// FederalTerritories is the generic bucket expanded into
	// FederalTerritoryNames.
	FederalTerritories = "Wilayah Persekutuan"
)

// FederalTerritoryNames are routed as states of their own.
var FederalTerritoryNames = []string{"Kuala Lumpur", "Putrajaya", "Labuan"}

// Entry is one row of the state -> cities lookup table.
type Entry struct {
	State  string   `yaml:"state" json:"state"`
	Cities []string `yaml:"cities" json:"cities"`
}

// Params identifies a static location page. City is empty for state pages.
type Params struct {
	State string `json:"state"`
	City  string `json:"city,omitempty"`
}

// Names holds the display names resolved from a pair of slugs.
type Names struct {
	State string `json:"state"`
	City  string `json:"city,omitempty"`
}

// City is a routable city with its slug.
type City struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// State is a routable state with its slug and cities in table order.
type State struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Cities []City `json:"cities"`
}

// Table is the immutable, routable view of a lookup table. It is safe for
// concurrent use.
type Table struct {
	states []State
}

// NewTable builds a Table from raw rows. The AllStates row is dropped and the
// FederalTerritories bucket is replaced, at its position, by one state per
// federal territory. A territory that also has its own row takes that row's
// cities and is not emitted twice.
func NewTable(entries []Entry) *Table {
	own := map[string][]string{}
	hasBucket := false
	for _, e := range entries {
		if e.State == FederalTerritories {
			hasBucket = true
		}
		if isFederalTerritory(e.State) {
			if _, ok := own[e.State]; !ok {
				own[e.State] = e.Cities
			}
		}
	}

	t := &Table{}
	for _, e := range entries {
		switch {
		case e.State == AllStates:
			continue
		case e.State == FederalTerritories:
			for _, name := range FederalTerritoryNames {
				t.states = append(t.states, newState(name, own[name]))
			}
		case hasBucket && isFederalTerritory(e.State):
			continue
		default:
			t.states = append(t.states, newState(e.State, e.Cities))
		}
	}
	return t
}

// LoadTable reads a YAML list of {state, cities} rows.
func LoadTable(path string) (*Table, error) {
	payload, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := yaml.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("location: parse %s: %w", path, err)
	}
	return NewTable(entries), nil
}

func newState(name string, cities []string) State {
	s := State{Name: name, Slug: Slugify(name), Cities: make([]City, 0, len(cities))}
	for _, c := range cities {
		s.Cities = append(s.Cities, City{Name: c, Slug: Slugify(c)})
	}
	return s
}

func isFederalTerritory(name string) bool {
	for _, n := range FederalTerritoryNames {
		if n == name {
			return true
		}
	}
	return false
}

// States returns the routable states in table order.
func (t *Table) States() []State {
	out := make([]State, len(t.states))
	copy(out, t.states)
	return out
}

// GenerateAllLocationParams enumerates every state page followed by its city
// pages, states in table order and cities in list order.
func (t *Table) GenerateAllLocationParams() []Params {
	var out []Params
	for _, s := range t.states {
		out = append(out, Params{State: s.Slug})
		for _, c := range s.Cities {
			out = append(out, Params{State: s.Slug, City: c.Slug})
		}
	}
	return out
}

// ResolveDisplayNames maps slugs back to display names. The first state (and
// city within it) whose slug matches wins. Unknown slugs fall back to a
// title-cased reconstruction, which is only approximate.
func (t *Table) ResolveDisplayNames(stateSlug, citySlug string) Names {
	s, ok := t.findState(stateSlug)
	if !ok {
		names := Names{State: titleFromSlug(stateSlug)}
		if citySlug != "" {
			names.City = titleFromSlug(citySlug)
		}
		return names
	}

	names := Names{State: s.Name}
	if citySlug == "" {
		return names
	}
	if c, ok := findCity(s, citySlug); ok {
		names.City = c.Name
	} else {
		names.City = titleFromSlug(citySlug)
	}
	return names
}

// IsValidLocation reports whether stateSlug names a state and, when citySlug
// is non-empty, whether it names a city of that state.
func (t *Table) IsValidLocation(stateSlug, citySlug string) bool {
	s, ok := t.findState(stateSlug)
	if !ok {
		return false
	}
	if citySlug == "" {
		return true
	}
	_, ok = findCity(s, citySlug)
	return ok
}

func (t *Table) findState(slug string) (State, bool) {
	for _, s := range t.states {
		if s.Slug == slug {
			return s, true
		}
	}
	return State{}, false
}

func findCity(s State, slug string) (City, bool) {
	for _, c := range s.Cities {
		if c.Slug == slug {
			return c, true
		}
	}
	return City{}, false
}
