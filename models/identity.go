package models

import "time"

// IdentityClaim reserves an external identity for exactly one registration.
// The claim lives in its own collection, keyed and partitioned by the
// identity itself, so of two concurrent first registrations only one create
// succeeds and the other defers to the winner's participant.
type IdentityClaim struct {
	Identity  string    `json:"identity"`
	ClaimedAt time.Time `json:"claimed_at"`
}
