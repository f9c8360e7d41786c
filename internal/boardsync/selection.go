package boardsync

import (
	"context"
	"sync"
)

// Selection tracks the transient multi-select set used during the grouping
// phase. It holds card ids only; card data stays in the engine snapshot.
type Selection struct {
	engine *Engine

	mu       sync.Mutex
	selected map[string]struct{}
	order    []string
}

// NewSelection constructs a Selection bound to an engine.
func NewSelection(engine *Engine) *Selection {
	return &Selection{engine: engine, selected: make(map[string]struct{})}
}

// Set selects or deselects a card.
func (s *Selection) Set(cardID string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selected {
		if _, ok := s.selected[cardID]; !ok {
			s.selected[cardID] = struct{}{}
			s.order = append(s.order, cardID)
		}
		return
	}
	if _, ok := s.selected[cardID]; ok {
		delete(s.selected, cardID)
		for i, id := range s.order {
			if id == cardID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Toggle flips a card's selection state.
func (s *Selection) Toggle(cardID string) {
	s.mu.Lock()
	_, selected := s.selected[cardID]
	s.mu.Unlock()
	s.Set(cardID, !selected)
}

// IsSelected reports whether a card is in the selection.
func (s *Selection) IsSelected(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[cardID]
	return ok
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{})
	s.order = nil
}

// Cards returns the selected card ids in selection order.
func (s *Selection) Cards() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// CreateGroupFromSelection groups the selected cards under the given name.
// A group cannot span columns, so the selection is partitioned by each
// card's owning column and one group is created per partition. The selection
// is cleared afterwards, whether or not every call succeeded. Returns the
// ids of the groups created.
func (s *Selection) CreateGroupFromSelection(ctx context.Context, name string) ([]string, error) {
	ids := s.Cards()
	defer s.Clear()

	board := s.engine.Snapshot()
	if board == nil {
		return nil, ErrNoBoard
	}

	byColumn := make(map[string][]string)
	var columns []string
	for _, cardID := range ids {
		card, ok := board.FindCard(cardID)
		if !ok {
			continue
		}
		if _, seen := byColumn[card.ColumnID]; !seen {
			columns = append(columns, card.ColumnID)
		}
		byColumn[card.ColumnID] = append(byColumn[card.ColumnID], cardID)
	}

	var groupIDs []string
	for _, columnID := range columns {
		groupID, err := s.engine.CreateGroup(ctx, columnID, name, byColumn[columnID])
		if err != nil {
			return groupIDs, err
		}
		groupIDs = append(groupIDs, groupID)
	}
	return groupIDs, nil
}
