package models

import (
	"sort"
	"strconv"
	"strings"
)

// Position is a latitude/longitude pair; the zero value is the unset sentinel
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsSentinel reports whether the position was never set by geolocation or the map
func (p Position) IsSentinel() bool {
	return p.Latitude == 0 && p.Longitude == 0
}

// ItemSet is the set of selected item identifiers
type ItemSet map[int]struct{}

// NewItemSet builds a set from ids, ignoring duplicates
func NewItemSet(ids ...int) ItemSet {
	set := make(ItemSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Toggle flips membership of id
func (s ItemSet) Toggle(id int) {
	if _, ok := s[id]; ok {
		delete(s, id)
		return
	}
	s[id] = struct{}{}
}

// Has reports whether id is selected
func (s ItemSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selected ids in ascending order
func (s ItemSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Join renders the comma-joined wire form the registry expects
func (s ItemSet) Join() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// ImageUpload is the photo attached to a submission
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
	// Token identifies the image in the upload store once staged
	Token string
}

// PointSubmission is the candidate collection point assembled from one submit attempt
type PointSubmission struct {
	Name     string       `json:"name" validate:"required,min=3"`
	Email    string       `json:"email" validate:"required,email"`
	Whatsapp string       `json:"whatsapp" validate:"required"`
	UF       string       `json:"uf" validate:"required,len=2"`
	City     string       `json:"city" validate:"required"`
	Position Position     `json:"-"`
	Items    ItemSet      `json:"items" validate:"min=1"`
	Image    *ImageUpload `json:"image" validate:"required"`
}

// ValidationErrors maps a field path to the message shown next to that field
type ValidationErrors map[string]string

// HasLocationError reports whether either coordinate failed validation
func (v ValidationErrors) HasLocationError() bool {
	_, lat := v["latitude"]
	_, lng := v["longitude"]
	return lat || lng
}

// LocationMessage returns the single message rendered under the map
func (v ValidationErrors) LocationMessage() string {
	if msg, ok := v["latitude"]; ok {
		return msg
	}
	return v["longitude"]
}
