package boardsync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"retroboard/internal/client"
	"retroboard/internal/models"
)

var (
	ErrNoBoard        = errors.New("no board loaded")
	ErrEmptyContent   = errors.New("card content cannot be empty")
	ErrEmptyName      = errors.New("group name cannot be empty")
	ErrInvalidPhase   = errors.New("invalid board phase")
	ErrCardNotFound   = errors.New("card not found in snapshot")
	ErrColumnNotFound = errors.New("column not found in snapshot")
	ErrGroupNotFound  = errors.New("group not found in snapshot")
	ErrNotVotingPhase = errors.New("voting is only allowed in the voting phase")
)

// Engine keeps a local snapshot of one board consistent with the server
// under concurrent multi-user edits. Mutations are applied optimistically,
// sent to the server, and rolled back on failure; change-feed events are
// merged idempotently, so an event may arrive before, after, or instead of
// the HTTP confirmation of the mutation that caused it.
//
// Every writer, UI intents and feed events alike, serializes through one
// mutex, and the snapshot never leaves the engine except as a deep copy.
type Engine struct {
	api client.BoardAPI

	mu      sync.Mutex
	board   *models.BoardWithDetails
	pending *pendingOps

	// deleted remembers card ids removed from this snapshot, locally or via
	// the feed, so a late or replayed INSERT for one of them is a no-op
	// instead of a resurrection.
	deleted map[string]struct{}
}

// NewEngine constructs an Engine backed by the given remote API.
func NewEngine(api client.BoardAPI) *Engine {
	return &Engine{
		api:     api,
		pending: newPendingOps(LoadingDelay),
		deleted: make(map[string]struct{}),
	}
}

// Load fetches the board snapshot and makes it the engine's state.
func (e *Engine) Load(ctx context.Context, boardID string) error {
	details, err := e.api.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.board = details.Clone()
	e.deleted = make(map[string]struct{})
	e.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the current board state, or nil if no
// board is loaded.
func (e *Engine) Snapshot() *models.BoardWithDetails {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Clone()
}

// Loading reports whether the delayed loading indicator for an operation is
// visible. For OpAddCard the id is the column id; otherwise the card id.
func (e *Engine) Loading(kind OpKind, id string) bool {
	return e.pending.loading(kind, id)
}

// Close stops pending indicator timers. In-flight requests are not aborted;
// their completions still run confirm/rollback logic against the snapshot.
func (e *Engine) Close() {
	e.pending.close()
}

// AddCard optimistically appends a card and creates it remotely under a
// pre-generated id, so the eventual INSERT feed event deduplicates instead
// of producing a second card. Returns the new card's id.
func (e *Engine) AddCard(ctx context.Context, columnID, content string, author *string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}

	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return "", ErrNoBoard
	}
	if _, ok := e.board.FindColumn(columnID); !ok {
		e.mu.Unlock()
		return "", ErrColumnNotFound
	}
	now := time.Now().UTC()
	card := models.Card{
		ID:        uuid.NewString(),
		BoardID:   e.board.ID,
		ColumnID:  columnID,
		Content:   content,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}.Clone()
	e.board.Cards = append(e.board.Cards, card)
	boardID := e.board.ID
	e.mu.Unlock()

	settle := e.pending.begin(OpAddCard, columnID)
	defer settle()

	if _, err := e.api.CreateCard(ctx, client.CreateCardRequest{
		ID:       card.ID,
		BoardID:  boardID,
		ColumnID: columnID,
		Content:  content,
		Author:   card.Author,
	}); err != nil {
		e.mu.Lock()
		e.removeCardLocked(card.ID)
		e.mu.Unlock()
		return "", err
	}
	return card.ID, nil
}

// Vote optimistically increments a card's votes and asks the server for an
// atomic increment. The local bump is display convenience only; the server's
// read-modify-write is authoritative. Rejected outside the voting phase with
// no local or remote effect.
func (e *Engine) Vote(ctx context.Context, cardID string) error {
	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	idx := e.indexOfCardLocked(cardID)
	if idx < 0 {
		e.mu.Unlock()
		return ErrCardNotFound
	}
	if e.board.Phase != models.PhaseVoting {
		e.mu.Unlock()
		return ErrNotVotingPhase
	}
	e.board.Cards[idx].Votes++
	e.mu.Unlock()

	settle := e.pending.begin(OpVote, cardID)
	defer settle()

	if _, err := e.api.VoteCard(ctx, cardID); err != nil {
		e.mu.Lock()
		if idx := e.indexOfCardLocked(cardID); idx >= 0 && e.board.Cards[idx].Votes > 0 {
			e.board.Cards[idx].Votes--
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// UpdateCard optimistically replaces a card's content and author. On failure
// the exact prior values of the touched fields are restored.
func (e *Engine) UpdateCard(ctx context.Context, cardID, content string, author *string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}

	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	idx := e.indexOfCardLocked(cardID)
	if idx < 0 {
		e.mu.Unlock()
		return ErrCardNotFound
	}
	prior := e.board.Cards[idx].Clone()
	e.board.Cards[idx].Content = content
	e.board.Cards[idx].Author = cloneString(author)
	e.board.Cards[idx].UpdatedAt = time.Now().UTC()
	e.mu.Unlock()

	settle := e.pending.begin(OpUpdateCard, cardID)
	defer settle()

	patch := client.CardPatch{Content: &content, Author: cloneString(author), SetAuthor: true}
	if _, err := e.api.UpdateCard(ctx, cardID, patch); err != nil {
		e.mu.Lock()
		if idx := e.indexOfCardLocked(cardID); idx >= 0 {
			e.board.Cards[idx].Content = prior.Content
			e.board.Cards[idx].Author = prior.Author
			e.board.Cards[idx].UpdatedAt = prior.UpdatedAt
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// DeleteCard optimistically removes a card. On failure the captured card is
// re-inserted; membership is guaranteed, its position among siblings is not.
func (e *Engine) DeleteCard(ctx context.Context, cardID string) error {
	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	idx := e.indexOfCardLocked(cardID)
	if idx < 0 {
		e.mu.Unlock()
		return ErrCardNotFound
	}
	prior := e.board.Cards[idx].Clone()
	e.board.Cards = append(e.board.Cards[:idx], e.board.Cards[idx+1:]...)
	e.deleted[cardID] = struct{}{}
	e.mu.Unlock()

	settle := e.pending.begin(OpDeleteCard, cardID)
	defer settle()

	if err := e.api.DeleteCard(ctx, cardID); err != nil {
		e.mu.Lock()
		delete(e.deleted, cardID)
		if e.indexOfCardLocked(cardID) < 0 {
			e.board.Cards = append(e.board.Cards, prior)
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// CreateGroup creates a group remotely and then assigns the given cards to
// it. Unlike card operations this is not optimistic: the cards need the
// group id, so local state is only updated once the group exists. The
// two-step sequence is not atomic; if the assignment fails the group exists
// empty, visible and editable, and no compensation is attempted.
func (e *Engine) CreateGroup(ctx context.Context, columnID, name string, cardIDs []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return "", ErrNoBoard
	}
	if _, ok := e.board.FindColumn(columnID); !ok {
		e.mu.Unlock()
		return "", ErrColumnNotFound
	}
	boardID := e.board.ID
	e.mu.Unlock()

	group, err := e.api.CreateGroup(ctx, client.CreateGroupRequest{
		BoardID:  boardID,
		ColumnID: columnID,
		Name:     name,
	})
	if err != nil {
		return "", err
	}

	var assignErr error
	if len(cardIDs) > 0 {
		assignErr = e.api.AssignCardsToGroup(ctx, group.ID, cardIDs)
	}

	e.mu.Lock()
	if e.board != nil {
		e.mergeGroupLocked(group)
		if assignErr == nil {
			for _, cardID := range cardIDs {
				if idx := e.indexOfCardLocked(cardID); idx >= 0 {
					id := group.ID
					e.board.Cards[idx].GroupID = &id
				}
			}
		}
	}
	e.mu.Unlock()

	if assignErr != nil {
		return group.ID, assignErr
	}
	return group.ID, nil
}

// RenameGroup optimistically renames a group.
func (e *Engine) RenameGroup(ctx context.Context, groupID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	idx := e.indexOfGroupLocked(groupID)
	if idx < 0 {
		e.mu.Unlock()
		return ErrGroupNotFound
	}
	prior := e.board.Groups[idx].Name
	e.board.Groups[idx].Name = name
	e.mu.Unlock()

	if _, err := e.api.UpdateGroup(ctx, groupID, client.GroupPatch{Name: &name}); err != nil {
		e.mu.Lock()
		if idx := e.indexOfGroupLocked(groupID); idx >= 0 {
			e.board.Groups[idx].Name = prior
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// DeleteGroup optimistically removes a group and clears group_id on every
// local card that referenced it, mirroring the server-side cascade. Rollback
// restores the group and the membership of the cards it had.
func (e *Engine) DeleteGroup(ctx context.Context, groupID string) error {
	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	idx := e.indexOfGroupLocked(groupID)
	if idx < 0 {
		e.mu.Unlock()
		return ErrGroupNotFound
	}
	prior := e.board.Groups[idx]
	e.board.Groups = append(e.board.Groups[:idx], e.board.Groups[idx+1:]...)
	var members []string
	for i := range e.board.Cards {
		if e.board.Cards[i].GroupID != nil && *e.board.Cards[i].GroupID == groupID {
			members = append(members, e.board.Cards[i].ID)
			e.board.Cards[i].GroupID = nil
		}
	}
	e.mu.Unlock()

	if err := e.api.DeleteGroup(ctx, groupID); err != nil {
		e.mu.Lock()
		if e.board != nil {
			e.mergeGroupLocked(prior)
			for _, cardID := range members {
				if idx := e.indexOfCardLocked(cardID); idx >= 0 && e.board.Cards[idx].GroupID == nil {
					id := groupID
					e.board.Cards[idx].GroupID = &id
				}
			}
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// UngroupCard optimistically detaches a card from its group.
func (e *Engine) UngroupCard(ctx context.Context, cardID string) error {
	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	idx := e.indexOfCardLocked(cardID)
	if idx < 0 {
		e.mu.Unlock()
		return ErrCardNotFound
	}
	prior := cloneString(e.board.Cards[idx].GroupID)
	e.board.Cards[idx].GroupID = nil
	e.mu.Unlock()

	if _, err := e.api.UpdateCard(ctx, cardID, client.CardPatch{SetGroupID: true}); err != nil {
		e.mu.Lock()
		if idx := e.indexOfCardLocked(cardID); idx >= 0 {
			e.board.Cards[idx].GroupID = prior
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// AddCardsToGroup optimistically attaches cards to an existing group.
func (e *Engine) AddCardsToGroup(ctx context.Context, groupID string, cardIDs []string) error {
	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	if e.indexOfGroupLocked(groupID) < 0 {
		e.mu.Unlock()
		return ErrGroupNotFound
	}
	priors := make(map[string]*string, len(cardIDs))
	for _, cardID := range cardIDs {
		if idx := e.indexOfCardLocked(cardID); idx >= 0 {
			priors[cardID] = cloneString(e.board.Cards[idx].GroupID)
			id := groupID
			e.board.Cards[idx].GroupID = &id
		}
	}
	e.mu.Unlock()

	if err := e.api.AssignCardsToGroup(ctx, groupID, cardIDs); err != nil {
		e.mu.Lock()
		for cardID, prior := range priors {
			if idx := e.indexOfCardLocked(cardID); idx >= 0 {
				e.board.Cards[idx].GroupID = prior
			}
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// ChangePhase optimistically moves the board to a new phase. Transition
// legality is not checked here; any known phase is accepted.
func (e *Engine) ChangePhase(ctx context.Context, phase models.BoardPhase) error {
	if !models.ValidPhase(string(phase)) {
		return ErrInvalidPhase
	}

	e.mu.Lock()
	if e.board == nil {
		e.mu.Unlock()
		return ErrNoBoard
	}
	prior := e.board.Phase
	e.board.Phase = phase
	boardID := e.board.ID
	e.mu.Unlock()

	if _, err := e.api.UpdateBoard(ctx, boardID, client.BoardPatch{Phase: &phase}); err != nil {
		e.mu.Lock()
		if e.board != nil {
			e.board.Phase = prior
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// ApplyEvent merges one change-feed event into the snapshot. Events are
// at-least-once: applying any event zero, one, or many times leaves the
// snapshot in a state the server converges to.
func (e *Engine) ApplyEvent(ev models.ChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.board == nil {
		return
	}

	switch ev.Table {
	case models.TableCards:
		if ev.Card == nil {
			return
		}
		switch ev.Type {
		case models.EventInsert:
			if _, gone := e.deleted[ev.Card.ID]; gone {
				return
			}
			if e.indexOfCardLocked(ev.Card.ID) < 0 {
				e.board.Cards = append(e.board.Cards, ev.Card.Clone())
			}
		case models.EventUpdate:
			if idx := e.indexOfCardLocked(ev.Card.ID); idx >= 0 {
				e.board.Cards[idx] = ev.Card.Clone()
			}
		case models.EventDelete:
			e.deleted[ev.Card.ID] = struct{}{}
			if idx := e.indexOfCardLocked(ev.Card.ID); idx >= 0 {
				e.board.Cards = append(e.board.Cards[:idx], e.board.Cards[idx+1:]...)
			}
		}

	case models.TableGroups:
		if ev.Group == nil {
			return
		}
		switch ev.Type {
		case models.EventInsert:
			e.mergeGroupLocked(*ev.Group)
		case models.EventUpdate:
			if idx := e.indexOfGroupLocked(ev.Group.ID); idx >= 0 {
				e.board.Groups[idx] = *ev.Group
			}
		case models.EventDelete:
			if idx := e.indexOfGroupLocked(ev.Group.ID); idx >= 0 {
				e.board.Groups = append(e.board.Groups[:idx], e.board.Groups[idx+1:]...)
			}
			for i := range e.board.Cards {
				if e.board.Cards[i].GroupID != nil && *e.board.Cards[i].GroupID == ev.Group.ID {
					e.board.Cards[i].GroupID = nil
				}
			}
		}

	case models.TableBoards:
		if ev.Board == nil || ev.Type != models.EventUpdate {
			return
		}
		// Board-row events carry scalars only. The columns/cards/groups
		// slices belong to their own event streams and are preserved.
		board := *ev.Board
		board.InviteCode = cloneString(board.InviteCode)
		e.board.Board = board
	}
}

func (e *Engine) indexOfCardLocked(cardID string) int {
	for i := range e.board.Cards {
		if e.board.Cards[i].ID == cardID {
			return i
		}
	}
	return -1
}

func (e *Engine) indexOfGroupLocked(groupID string) int {
	for i := range e.board.Groups {
		if e.board.Groups[i].ID == groupID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeCardLocked(cardID string) {
	if e.board == nil {
		return
	}
	if idx := e.indexOfCardLocked(cardID); idx >= 0 {
		e.board.Cards = append(e.board.Cards[:idx], e.board.Cards[idx+1:]...)
	}
}

// mergeGroupLocked appends the group unless one with the same id exists.
func (e *Engine) mergeGroupLocked(group models.Group) {
	if e.indexOfGroupLocked(group.ID) < 0 {
		e.board.Groups = append(e.board.Groups, group)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
