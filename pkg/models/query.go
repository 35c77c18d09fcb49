package models

import "time"

// UserIntent is the structured form of a free-text request. It is
// derived per query and never persisted.
type UserIntent struct {
	Rank          string   `json:"rank,omitempty"`           // "" means no rank filter
	DaysAvailable *int     `json:"days_available,omitempty"` // nil means no stated budget
	Keywords      []string `json:"keywords"`
}

// MatchScore holds the three sub-scores and their fixed-weight
// combination, all in [0,100].
type MatchScore struct {
	ContentMatch    int `json:"content_match"`
	TimeFeasibility int `json:"time_feasibility"`
	Difficulty      int `json:"difficulty_score"`
	Overall         int `json:"overall_score"`
}

// DeadlineInfo is the serializable view of a resolved deadline.
type DeadlineInfo struct {
	At        time.Time `json:"at"`
	LocalTime string    `json:"local_time"`
	Timezone  string    `json:"timezone"`
	Countdown string    `json:"countdown"`
	Expired   bool      `json:"expired"`
	Comment   string    `json:"comment,omitempty"`
	Link      string    `json:"link,omitempty"`
	Year      int       `json:"year,omitempty"`
	Place     string    `json:"place,omitempty"`
}

type RankedConference struct {
	Conference *Conference   `json:"conference"`
	Score      MatchScore    `json:"score"`
	Deadline   *DeadlineInfo `json:"next_deadline,omitempty"`
}

type QueryRequest struct {
	Text    string `json:"text" binding:"required" validate:"required,min=1,max=500"`
	Limit   int    `json:"limit" validate:"omitempty,min=1,max=50"`
	Explain bool   `json:"explain"`
}

type QueryResponse struct {
	Intent      UserIntent         `json:"intent"`
	Results     []RankedConference `json:"results"`
	Answer      string             `json:"answer,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}
