package models

// Item is a collectible waste category offered by the registry
type Item struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// State is a Brazilian state as returned by the geography API
type State struct {
	Code string `json:"sigla"`
}

// City is a municipality of a state
type City struct {
	Name string `json:"nome"`
}

// StateCodes extracts the codes of states, in the given order
func StateCodes(states []State) []string {
	codes := make([]string, len(states))
	for i, s := range states {
		codes[i] = s.Code
	}
	return codes
}

// CityNames extracts the names of cities, in the given order
func CityNames(cities []City) []string {
	names := make([]string, len(cities))
	for i, c := range cities {
		names[i] = c.Name
	}
	return names
}
