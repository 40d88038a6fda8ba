package models

import (
	"time"
)

// Machine represents an HTB machine as returned by the machine list endpoints
type Machine struct {
	ID               int64
	Name             string
	OS               string
	Difficulty       string
	Rating           float64
	DifficultyRating int
	Retired          bool
	UserOwn          bool
	SystemOwn        bool
	// ReleaseDate is a calendar date in YYYY-MM-DD form
	ReleaseDate string
	AvatarURL   string
}

// Properties holds the mutable machine fields that are compared against Notion
type Properties struct {
	Difficulty       string
	Rating           float64
	DifficultyRating float64
	Retired          bool
	UserOwn          bool
	SystemOwn        bool
}

// Properties returns the comparable subset of the machine's fields
func (m Machine) Properties() Properties {
	return Properties{
		Difficulty:       m.Difficulty,
		Rating:           m.Rating,
		DifficultyRating: float64(m.DifficultyRating),
		Retired:          m.Retired,
		UserOwn:          m.UserOwn,
		SystemOwn:        m.SystemOwn,
	}
}

// PageRef represents an existing Notion page for a machine
type PageRef struct {
	PageID    string
	MachineID int64
	// Properties are the current values stored on the page
	Properties Properties
	// Incomplete is set when one of the comparable properties is empty in Notion
	Incomplete bool
}

// ActionKind identifies what the reconciler decided for a machine
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
)

// Action is a single create or update to apply to the Notion database
type Action struct {
	Kind    ActionKind
	Machine Machine
	// PageID is empty for creates
	PageID string
}

// RunSummary tracks the outcome of a single sync run
type RunSummary struct {
	ID         string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Created    int
	Updated    int
	Unchanged  int
	Error      string
}
