package boardsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retroboard/internal/client"
	"retroboard/internal/mocks"
	"retroboard/internal/models"
)

func testBoard() models.BoardWithDetails {
	author := "alice"
	return models.BoardWithDetails{
		Board: models.Board{ID: "b1", Title: "Sprint 12", Phase: models.PhaseGathering},
		Columns: []models.Column{
			{ID: "col-1", BoardID: "b1", Title: "Went Well", SortOrder: 0},
			{ID: "col-2", BoardID: "b1", Title: "Needs Improvement", SortOrder: 1},
		},
		Cards: []models.Card{
			{ID: "card-1", BoardID: "b1", ColumnID: "col-1", Content: "fast builds", Author: &author},
			{ID: "card-2", BoardID: "b1", ColumnID: "col-2", Content: "flaky tests", Votes: 1},
		},
	}
}

func loadedEngine(t *testing.T, api *mocks.BoardAPIMock, board models.BoardWithDetails) *Engine {
	t.Helper()
	api.On("GetBoard", mock.Anything, board.ID).Return(board, nil).Once()
	engine := NewEngine(api)
	require.NoError(t, engine.Load(context.Background(), board.ID))
	return engine
}

func TestAddCardOptimisticThenFeedDedup(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	api.On("CreateCard", mock.Anything, mock.MatchedBy(func(req client.CreateCardRequest) bool {
		return req.BoardID == "b1" && req.ColumnID == "col-1" && req.Content == "pairing" && req.ID != ""
	})).Return(models.Card{}, nil).Once()

	id, err := engine.AddCard(context.Background(), "col-1", "  pairing  ", nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap := engine.Snapshot()
	require.Len(t, snap.Cards, 3)
	card, ok := snap.FindCard(id)
	require.True(t, ok)
	assert.Equal(t, "pairing", card.Content)

	// The feed INSERT for the same id must merge, not duplicate.
	engine.ApplyEvent(models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventInsert,
		Card:  &models.Card{ID: id, BoardID: "b1", ColumnID: "col-1", Content: "pairing"},
	})
	assert.Len(t, engine.Snapshot().Cards, 3)

	api.AssertExpectations(t)
}

func TestAddCardRollbackRestoresSnapshot(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	before := engine.Snapshot()
	api.On("CreateCard", mock.Anything, mock.Anything).Return(models.Card{}, assert.AnError).Once()

	_, err := engine.AddCard(context.Background(), "col-1", "wont stick", nil)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, before, engine.Snapshot())
	api.AssertExpectations(t)
}

func TestAddCardValidation(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	_, err := engine.AddCard(context.Background(), "col-1", "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = engine.AddCard(context.Background(), "col-missing", "hello", nil)
	assert.ErrorIs(t, err, ErrColumnNotFound)

	api.AssertNotCalled(t, "CreateCard", mock.Anything, mock.Anything)
}

func TestVoteOutsideVotingPhase(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	err := engine.Vote(context.Background(), "card-1")
	require.ErrorIs(t, err, ErrNotVotingPhase)

	card, _ := engine.Snapshot().FindCard("card-1")
	assert.Equal(t, 0, card.Votes)
	api.AssertNotCalled(t, "VoteCard", mock.Anything, mock.Anything)
}

func TestVoteSequenceWithFailedThirdVote(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	voting := models.PhaseVoting
	api.On("UpdateBoard", mock.Anything, "b1", client.BoardPatch{Phase: &voting}).
		Return(models.Board{ID: "b1", Phase: models.PhaseVoting}, nil).Once()
	require.NoError(t, engine.ChangePhase(context.Background(), models.PhaseVoting))

	api.On("VoteCard", mock.Anything, "card-1").Return(models.Card{}, nil).Twice()
	api.On("VoteCard", mock.Anything, "card-1").Return(models.Card{}, assert.AnError).Once()

	require.NoError(t, engine.Vote(context.Background(), "card-1"))
	require.NoError(t, engine.Vote(context.Background(), "card-1"))
	require.ErrorIs(t, engine.Vote(context.Background(), "card-1"), assert.AnError)

	card, _ := engine.Snapshot().FindCard("card-1")
	assert.Equal(t, 2, card.Votes)
	api.AssertExpectations(t)
}

func TestVoteRollbackNeverGoesNegative(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	voting := models.PhaseVoting
	api.On("UpdateBoard", mock.Anything, "b1", mock.Anything).
		Return(models.Board{ID: "b1", Phase: voting}, nil).Once()
	require.NoError(t, engine.ChangePhase(context.Background(), models.PhaseVoting))

	// While the vote is in flight, an authoritative UPDATE resets the
	// count below the optimistic value. The rollback must clamp at zero.
	api.On("VoteCard", mock.Anything, "card-1").Run(func(args mock.Arguments) {
		engine.ApplyEvent(models.ChangeEvent{
			Table: models.TableCards,
			Type:  models.EventUpdate,
			Card:  &models.Card{ID: "card-1", BoardID: "b1", ColumnID: "col-1", Content: "fast builds", Votes: 0},
		})
	}).Return(models.Card{}, assert.AnError).Once()

	require.Error(t, engine.Vote(context.Background(), "card-1"))
	card, _ := engine.Snapshot().FindCard("card-1")
	assert.Equal(t, 0, card.Votes)
}

func TestUpdateCardRollbackLeavesUnrelatedChanges(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	original, _ := engine.Snapshot().FindCard("card-1")
	bob := "bob"

	// An unrelated card changes through the feed while the update is in
	// flight; the rollback restores only the touched card.
	api.On("UpdateCard", mock.Anything, "card-1", mock.Anything).Run(func(args mock.Arguments) {
		engine.ApplyEvent(models.ChangeEvent{
			Table: models.TableCards,
			Type:  models.EventUpdate,
			Card:  &models.Card{ID: "card-2", BoardID: "b1", ColumnID: "col-2", Content: "flaky tests", Votes: 5},
		})
	}).Return(models.Card{}, assert.AnError).Once()

	require.Error(t, engine.UpdateCard(context.Background(), "card-1", "rewritten", &bob))

	snap := engine.Snapshot()
	restored, _ := snap.FindCard("card-1")
	assert.Equal(t, original, restored)
	other, _ := snap.FindCard("card-2")
	assert.Equal(t, 5, other.Votes)
	api.AssertExpectations(t)
}

func TestDeleteCardTombstoneBlocksLateInsert(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	api.On("DeleteCard", mock.Anything, "card-1").Return(nil).Once()
	require.NoError(t, engine.DeleteCard(context.Background(), "card-1"))
	assert.Len(t, engine.Snapshot().Cards, 1)

	// A replayed INSERT for the deleted id must not resurrect the card.
	engine.ApplyEvent(models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventInsert,
		Card:  &models.Card{ID: "card-1", BoardID: "b1", ColumnID: "col-1", Content: "fast builds"},
	})
	_, ok := engine.Snapshot().FindCard("card-1")
	assert.False(t, ok)
	api.AssertExpectations(t)
}

func TestDeleteCardRollback(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	api.On("DeleteCard", mock.Anything, "card-1").Return(assert.AnError).Once()
	require.Error(t, engine.DeleteCard(context.Background(), "card-1"))

	card, ok := engine.Snapshot().FindCard("card-1")
	require.True(t, ok)
	assert.Equal(t, "fast builds", card.Content)

	// The rollback also clears the tombstone, so a real INSERT for the id
	// would still merge later.
	engine.ApplyEvent(models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventInsert,
		Card:  &card,
	})
	assert.Len(t, engine.Snapshot().Cards, 2)
}

func TestCreateGroupAssignsCards(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	group := models.Group{ID: "g1", BoardID: "b1", ColumnID: "col-1", Name: "CI"}
	api.On("CreateGroup", mock.Anything, client.CreateGroupRequest{BoardID: "b1", ColumnID: "col-1", Name: "CI"}).
		Return(group, nil).Once()
	api.On("AssignCardsToGroup", mock.Anything, "g1", []string{"card-1"}).Return(nil).Once()

	id, err := engine.CreateGroup(context.Background(), "col-1", "CI", []string{"card-1"})
	require.NoError(t, err)
	assert.Equal(t, "g1", id)

	snap := engine.Snapshot()
	_, ok := snap.FindGroup("g1")
	assert.True(t, ok)
	card, _ := snap.FindCard("card-1")
	require.NotNil(t, card.GroupID)
	assert.Equal(t, "g1", *card.GroupID)
	api.AssertExpectations(t)
}

func TestCreateGroupAssignFailureLeavesEmptyGroup(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	group := models.Group{ID: "g1", BoardID: "b1", ColumnID: "col-1", Name: "CI"}
	api.On("CreateGroup", mock.Anything, mock.Anything).Return(group, nil).Once()
	api.On("AssignCardsToGroup", mock.Anything, "g1", []string{"card-1"}).Return(assert.AnError).Once()

	id, err := engine.CreateGroup(context.Background(), "col-1", "CI", []string{"card-1"})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "g1", id)

	// The group survives as an empty group; no compensation is attempted.
	snap := engine.Snapshot()
	_, ok := snap.FindGroup("g1")
	assert.True(t, ok)
	card, _ := snap.FindCard("card-1")
	assert.Nil(t, card.GroupID)
	api.AssertExpectations(t)
}

func TestDeleteGroupCascadesAndRollsBack(t *testing.T) {
	board := testBoard()
	groupID := "g1"
	board.Groups = []models.Group{{ID: groupID, BoardID: "b1", ColumnID: "col-1", Name: "CI"}}
	board.Cards[0].GroupID = &groupID

	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, board)
	defer engine.Close()

	api.On("DeleteGroup", mock.Anything, "g1").Return(assert.AnError).Once()
	require.Error(t, engine.DeleteGroup(context.Background(), "g1"))

	snap := engine.Snapshot()
	_, ok := snap.FindGroup("g1")
	assert.True(t, ok, "failed delete must restore the group")
	card, _ := snap.FindCard("card-1")
	require.NotNil(t, card.GroupID)
	assert.Equal(t, "g1", *card.GroupID)

	api.On("DeleteGroup", mock.Anything, "g1").Return(nil).Once()
	require.NoError(t, engine.DeleteGroup(context.Background(), "g1"))

	snap = engine.Snapshot()
	_, ok = snap.FindGroup("g1")
	assert.False(t, ok)
	card, _ = snap.FindCard("card-1")
	assert.Nil(t, card.GroupID, "member cards must be detached, not deleted")
	api.AssertExpectations(t)
}

func TestApplyEventGroupDeleteCascade(t *testing.T) {
	board := testBoard()
	groupID := "g1"
	board.Groups = []models.Group{{ID: groupID, BoardID: "b1", ColumnID: "col-1", Name: "CI"}}
	board.Cards[0].GroupID = &groupID

	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, board)
	defer engine.Close()

	ev := models.ChangeEvent{
		Table: models.TableGroups,
		Type:  models.EventDelete,
		Group: &models.Group{ID: groupID, BoardID: "b1", ColumnID: "col-1", Name: "CI"},
	}
	engine.ApplyEvent(ev)
	engine.ApplyEvent(ev) // replay is a no-op

	snap := engine.Snapshot()
	_, ok := snap.FindGroup(groupID)
	assert.False(t, ok)
	card, _ := snap.FindCard("card-1")
	assert.Nil(t, card.GroupID)
}

func TestApplyEventIdempotent(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	insert := models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventInsert,
		Card:  &models.Card{ID: "card-3", BoardID: "b1", ColumnID: "col-1", Content: "new hire onboarding"},
	}
	engine.ApplyEvent(insert)
	engine.ApplyEvent(insert)
	assert.Len(t, engine.Snapshot().Cards, 3)

	del := models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventDelete,
		Card:  &models.Card{ID: "card-3"},
	}
	engine.ApplyEvent(del)
	engine.ApplyEvent(del)
	assert.Len(t, engine.Snapshot().Cards, 2)

	// UPDATE for an unknown card is dropped, not inserted.
	engine.ApplyEvent(models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventUpdate,
		Card:  &models.Card{ID: "card-404", BoardID: "b1", ColumnID: "col-1", Content: "ghost"},
	})
	assert.Len(t, engine.Snapshot().Cards, 2)
}

func TestApplyEventBoardUpdateKeepsSlices(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	engine.ApplyEvent(models.ChangeEvent{
		Table: models.TableBoards,
		Type:  models.EventUpdate,
		Board: &models.Board{ID: "b1", Title: "Sprint 12", Phase: models.PhaseVoting},
	})

	snap := engine.Snapshot()
	assert.Equal(t, models.PhaseVoting, snap.Phase)
	assert.Len(t, snap.Columns, 2)
	assert.Len(t, snap.Cards, 2)
}

func TestChangePhaseValidationAndRollback(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	require.ErrorIs(t, engine.ChangePhase(context.Background(), "shipping"), ErrInvalidPhase)

	api.On("UpdateBoard", mock.Anything, "b1", mock.Anything).Return(models.Board{}, assert.AnError).Once()
	require.Error(t, engine.ChangePhase(context.Background(), models.PhaseVoting))
	assert.Equal(t, models.PhaseGathering, engine.Snapshot().Phase)
	api.AssertExpectations(t)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	api := new(mocks.BoardAPIMock)
	engine := loadedEngine(t, api, testBoard())
	defer engine.Close()

	snap := engine.Snapshot()
	snap.Cards[0].Content = "mutated"
	snap.Cards = snap.Cards[:0]

	fresh := engine.Snapshot()
	require.Len(t, fresh.Cards, 2)
	assert.Equal(t, "fast builds", fresh.Cards[0].Content)
}

func TestOperationsWithoutBoard(t *testing.T) {
	engine := NewEngine(new(mocks.BoardAPIMock))
	defer engine.Close()

	_, err := engine.AddCard(context.Background(), "col-1", "hello", nil)
	assert.ErrorIs(t, err, ErrNoBoard)
	assert.ErrorIs(t, engine.Vote(context.Background(), "card-1"), ErrNoBoard)
	assert.ErrorIs(t, engine.DeleteCard(context.Background(), "card-1"), ErrNoBoard)
	assert.Nil(t, engine.Snapshot())
}
