package domain

// RosterEntry is one line of the full-roster report.
type RosterEntry struct {
	UserID     int64            `json:"user_id"`
	FirstName  string           `json:"first_name"`
	LastName   string           `json:"last_name"`
	VideoCount int              `json:"video_count"`
	Status     SubmissionStatus `json:"status"` // PENDING when no daily row exists
	Reason     *string          `json:"reason,omitempty"`
}

// SenderCount is a user with at least one video on the report date.
type SenderCount struct {
	UserID     int64  `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	VideoCount int    `json:"video_count"`
}

// SendersSummary is the senders-only report.
type SendersSummary struct {
	Date         string        `json:"date"`
	Senders      []SenderCount `json:"senders"`
	TotalVideos  int           `json:"total_videos"`
	TotalSenders int           `json:"total_senders"`
}
