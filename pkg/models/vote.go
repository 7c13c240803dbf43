package models

// Vote is one user's vote on an item.
type Vote struct {
	ItemID    string `json:"itemId"`
	ItemType  string `json:"itemType"`
	UserID    string `json:"userId"`
	Value     int    `json:"value"`
	UpdatedAt int64  `json:"updatedAt"`
}

// VoteTotal is the running score for an item.
type VoteTotal struct {
	ItemID    string `json:"itemId"`
	ItemType  string `json:"itemType"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Score     int    `json:"score"`
}

// DailyVoteStats aggregates vote events for one item type on one day.
type DailyVoteStats struct {
	Date      string         `json:"date"` // YYYY-MM-DD, UTC
	ItemType  string         `json:"itemType"`
	Upvotes   int            `json:"upvotes"`
	Downvotes int            `json:"downvotes"`
	Total     int            `json:"total"`
	Items     map[string]int `json:"items"`
}

// ItemScore pairs an item with its score.
type ItemScore struct {
	ItemID string `json:"itemId"`
	Score  int    `json:"score"`
}
