package models

import "time"

type Participant struct {
	ID             string `json:"id"`
	Alias          string `json:"alias"`
	SequenceNumber int    `json:"sequence_number"`

	// TeamID is also the document's partition key in the roster store, which
	// is why relocation cannot update it in place.
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`

	ExternalIdentity string    `json:"external_identity"`
	RegisteredAt     time.Time `json:"registered_at"`

	Version string `json:"-"`
}
