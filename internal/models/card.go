package models

import "time"

// Card is a single piece of feedback on a board.
type Card struct {
	ID        string    `db:"id" json:"id"`
	BoardID   string    `db:"board_id" json:"board_id"`
	ColumnID  string    `db:"column_id" json:"column_id"`
	Content   string    `db:"content" json:"content"`
	Author    *string   `db:"author" json:"author"`
	Votes     int       `db:"votes" json:"votes"`
	GroupID   *string   `db:"group_id" json:"group_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Clone returns a copy whose nullable fields do not alias the original.
func (c Card) Clone() Card {
	out := c
	out.Author = copyString(c.Author)
	out.GroupID = copyString(c.GroupID)
	return out
}
