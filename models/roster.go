package models

// RosterOverview is the dashboard view of the whole event: every team with
// its live size plus the total participant count.
type RosterOverview struct {
	Teams             []TeamSummary `json:"teams"`
	TotalParticipants int           `json:"total_participants"`
}

type TeamSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Number      int      `json:"number"`
	MemberCount int      `json:"member_count"`
	Members     []string `json:"members"`
	BadgeURL    string   `json:"badge_url,omitempty"`
}
