package models

// Change-feed tables.
const (
	TableBoards = "boards"
	TableCards  = "cards"
	TableGroups = "groups"
)

// Change-feed event types.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent is broadcast through websockets whenever a row scoped to a
// board changes. Exactly one of Board, Card, Group is set for INSERT/UPDATE;
// DELETE carries the old row so subscribers can cascade.
type ChangeEvent struct {
	Table string `json:"table"`
	Type  string `json:"type"`
	Board *Board `json:"board,omitempty"`
	Card  *Card  `json:"card,omitempty"`
	Group *Group `json:"group,omitempty"`
}

// EntityID returns the id of the affected row.
func (e ChangeEvent) EntityID() string {
	switch {
	case e.Card != nil:
		return e.Card.ID
	case e.Group != nil:
		return e.Group.ID
	case e.Board != nil:
		return e.Board.ID
	}
	return ""
}
