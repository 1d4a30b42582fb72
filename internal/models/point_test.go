package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemSet_ToggleTwiceRestoresMembership(t *testing.T) {
	set := NewItemSet(1, 3)

	set.Toggle(2)
	assert.True(t, set.Has(2))

	set.Toggle(2)
	assert.False(t, set.Has(2))
	assert.Equal(t, []int{1, 3}, set.IDs())

	set.Toggle(1)
	set.Toggle(1)
	assert.Equal(t, []int{1, 3}, set.IDs())
}

func TestItemSet_Join(t *testing.T) {
	assert.Equal(t, "", NewItemSet().Join())
	assert.Equal(t, "1,2,10", NewItemSet(10, 2, 1, 2).Join())
}

func TestPosition_IsSentinel(t *testing.T) {
	assert.True(t, Position{}.IsSentinel())
	assert.False(t, Position{Latitude: -23.55, Longitude: 0}.IsSentinel())
	assert.False(t, Position{Latitude: -23.55, Longitude: -46.63}.IsSentinel())
}

func TestValidationErrors_Location(t *testing.T) {
	errs := ValidationErrors{"name": "x"}
	assert.False(t, errs.HasLocationError())

	errs["longitude"] = "Escolha uma localização válida"
	assert.True(t, errs.HasLocationError())
	assert.Equal(t, "Escolha uma localização válida", errs.LocationMessage())
}

func TestStateCodesAndCityNames(t *testing.T) {
	assert.Equal(t, []string{"AC", "SP"}, StateCodes([]State{{Code: "AC"}, {Code: "SP"}}))
	assert.Equal(t, []string{"Santos"}, CityNames([]City{{Name: "Santos"}}))
}
