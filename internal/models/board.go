package models

import "time"

// BoardPhase is the stage a retrospective board is in.
type BoardPhase string

const (
	PhaseGathering BoardPhase = "gathering"
	PhaseGrouping  BoardPhase = "grouping"
	PhaseVoting    BoardPhase = "voting"
	PhaseActions   BoardPhase = "actions"
)

// ValidPhase reports whether s is a known board phase.
func ValidPhase(s string) bool {
	switch BoardPhase(s) {
	case PhaseGathering, PhaseGrouping, PhaseVoting, PhaseActions:
		return true
	}
	return false
}

// Board is a retrospective session.
type Board struct {
	ID         string     `db:"id" json:"id"`
	Title      string     `db:"title" json:"title"`
	InviteCode *string    `db:"invite_code" json:"invite_code"`
	Phase      BoardPhase `db:"phase" json:"phase"`
	IsPublic   bool       `db:"is_public" json:"is_public"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// BoardWithDetails is the aggregate snapshot a client holds for one board.
// It is a composed view, not a database row.
type BoardWithDetails struct {
	Board
	Columns []Column `json:"columns"`
	Cards   []Card   `json:"cards"`
	Groups  []Group  `json:"groups"`
}

// Clone returns a deep copy of the snapshot. Nested slices and the nullable
// fields of every card are copied, so mutating the clone never touches the
// original.
func (b *BoardWithDetails) Clone() *BoardWithDetails {
	if b == nil {
		return nil
	}
	out := &BoardWithDetails{Board: b.Board}
	out.InviteCode = copyString(b.InviteCode)
	out.Columns = append([]Column(nil), b.Columns...)
	out.Groups = append([]Group(nil), b.Groups...)
	out.Cards = make([]Card, len(b.Cards))
	for i, c := range b.Cards {
		out.Cards[i] = c.Clone()
	}
	return out
}

// FindCard returns the card with the given id, if present.
func (b *BoardWithDetails) FindCard(id string) (Card, bool) {
	for _, c := range b.Cards {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return Card{}, false
}

// FindColumn returns the column with the given id, if present.
func (b *BoardWithDetails) FindColumn(id string) (Column, bool) {
	for _, c := range b.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// FindGroup returns the group with the given id, if present.
func (b *BoardWithDetails) FindGroup(id string) (Group, bool) {
	for _, g := range b.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
