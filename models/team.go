package models

import "time"

type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"` // stable ordering key, used for tie-breaks

	// MemberAliases is the denormalized roster: the aliases of every
	// participant whose TeamID equals this team's ID. It can lag behind the
	// participant documents inside a relocation's transient window.
	MemberAliases []string `json:"member_aliases"`

	BadgeKey  string    `json:"badge_key,omitempty"`
	BadgeURL  string    `json:"badge_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Version string `json:"-"`
}

// HasMember reports whether alias is present in the team roster.
func (t *Team) HasMember(alias string) bool {
	for _, a := range t.MemberAliases {
		if a == alias {
			return true
		}
	}
	return false
}
