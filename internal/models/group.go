package models

import "time"

// Group is a named cluster of cards within one column. Membership is derived:
// a card belongs to the group whose id its group_id references.
type Group struct {
	ID        string    `db:"id" json:"id"`
	BoardID   string    `db:"board_id" json:"board_id"`
	ColumnID  string    `db:"column_id" json:"column_id"`
	Name      string    `db:"name" json:"name"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
