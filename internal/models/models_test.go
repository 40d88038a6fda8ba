package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachineProperties(t *testing.T) {
	m := Machine{
		ID:               1,
		Name:             "Box",
		OS:               "Linux",
		Difficulty:       "Easy",
		Rating:           4.5,
		DifficultyRating: 20,
		Retired:          false,
		UserOwn:          true,
		SystemOwn:        false,
		ReleaseDate:      "2020-01-01",
	}

	assert.Equal(t, Properties{
		Difficulty:       "Easy",
		Rating:           4.5,
		DifficultyRating: 20,
		UserOwn:          true,
	}, m.Properties())
}

func TestPropertiesEquality(t *testing.T) {
	a := Properties{Difficulty: "Easy", Rating: 4.5, DifficultyRating: 20, UserOwn: true}
	b := a
	assert.True(t, a == b)

	b.SystemOwn = true
	assert.False(t, a == b)
}
