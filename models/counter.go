package models

// HackerNumberCounterID is the id of the singleton counter document that
// hands out participant sequence numbers.
const HackerNumberCounterID = "hackerNumberCounter"

type Counter struct {
	ID    string `json:"id"`
	Value int    `json:"value"`

	// Version is the store's optimistic-concurrency token for this document.
	Version string `json:"-"`
}
