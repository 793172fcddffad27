package resolve

import "strings"

// DefaultCountry is assumed when the upstream record carries no country
// component; the sources this engine ingests only list US locations.
const DefaultCountry = "USA"

// remoteCity is the sentinel city value for fully-remote positions.
// "Remote" is modeled as a location row of its own, not a flag overlay.
const remoteCity = "Remote"

// Location is the normalized natural key of a location row.
type Location struct {
	City     string
	State    string
	Country  string
	IsRemote bool
}

// Remote returns the sentinel location linked to remote jobs that
// report no explicit location.
func Remote() Location {
	return Location{City: remoteCity, Country: DefaultCountry, IsRemote: true}
}

// NormalizeLocation turns a free-text location ("New York, NY",
// "Austin, TX, USA", or a bare remote marker) into a normalized key.
// The text splits on the first comma into city and state, both trimmed;
// anything past a second comma is dropped. isRemote is the reporting
// job's remote flag and is part of the key. Returns ok=false for blank
// input, which callers must skip.
func NormalizeLocation(name string, isRemote bool) (Location, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, false
	}

	if strings.EqualFold(name, remoteCity) {
		return Remote(), true
	}

	city, rest, _ := strings.Cut(name, ",")
	city = strings.TrimSpace(city)
	if city == "" {
		return Location{}, false
	}

	state, _, _ := strings.Cut(rest, ",")
	state = strings.TrimSpace(state)

	return Location{City: city, State: state, Country: DefaultCountry, IsRemote: isRemote}, true
}
