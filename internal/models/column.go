package models

import "time"

// Column is a fixed category lane on a board. Columns are seeded from a
// template at board creation and never created individually.
type Column struct {
	ID        string    `db:"id" json:"id"`
	BoardID   string    `db:"board_id" json:"board_id"`
	Title     string    `db:"title" json:"title"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultColumnTitles is the template applied when a board is created.
var DefaultColumnTitles = []string{"Went Well", "Needs Improvement", "Action Items"}
