package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retroboard/internal/client"
	"retroboard/internal/models"
	"retroboard/internal/repositories"
)

type BoardRepositoryMock struct {
	mock.Mock
}

func (m *BoardRepositoryMock) CreateBoard(ctx context.Context, title string) (models.Board, error) {
	args := m.Called(ctx, title)
	var board models.Board
	if val := args.Get(0); val != nil {
		board = val.(models.Board)
	}
	return board, args.Error(1)
}

func (m *BoardRepositoryMock) GetBoard(ctx context.Context, boardID string) (models.Board, error) {
	args := m.Called(ctx, boardID)
	var board models.Board
	if val := args.Get(0); val != nil {
		board = val.(models.Board)
	}
	return board, args.Error(1)
}

func (m *BoardRepositoryMock) GetBoardWithDetails(ctx context.Context, boardID string) (models.BoardWithDetails, error) {
	args := m.Called(ctx, boardID)
	var details models.BoardWithDetails
	if val := args.Get(0); val != nil {
		details = val.(models.BoardWithDetails)
	}
	return details, args.Error(1)
}

func (m *BoardRepositoryMock) UpdateBoard(ctx context.Context, boardID string, update repositories.BoardUpdate) (models.Board, error) {
	args := m.Called(ctx, boardID, update)
	var board models.Board
	if val := args.Get(0); val != nil {
		board = val.(models.Board)
	}
	return board, args.Error(1)
}

type CardRepositoryMock struct {
	mock.Mock
}

func (m *CardRepositoryMock) CreateCard(ctx context.Context, id string, boardID string, columnID string, content string, author *string) (models.Card, error) {
	args := m.Called(ctx, id, boardID, columnID, content, author)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *CardRepositoryMock) GetCard(ctx context.Context, cardID string) (models.Card, error) {
	args := m.Called(ctx, cardID)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *CardRepositoryMock) UpdateCard(ctx context.Context, cardID string, update repositories.CardUpdate) (models.Card, error) {
	args := m.Called(ctx, cardID, update)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *CardRepositoryMock) DeleteCard(ctx context.Context, cardID string) (models.Card, error) {
	args := m.Called(ctx, cardID)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *CardRepositoryMock) IncrementVotes(ctx context.Context, cardID string) (models.Card, error) {
	args := m.Called(ctx, cardID)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *CardRepositoryMock) AssignCardsToGroup(ctx context.Context, groupID string, cardIDs []string) ([]models.Card, error) {
	args := m.Called(ctx, groupID, cardIDs)
	var cards []models.Card
	if val := args.Get(0); val != nil {
		cards = val.([]models.Card)
	}
	return cards, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, boardID string, columnID string, name string, sortOrder *int) (models.Group, error) {
	args := m.Called(ctx, boardID, columnID, name, sortOrder)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) UpdateGroup(ctx context.Context, groupID string, update repositories.GroupUpdate) (models.Group, error) {
	args := m.Called(ctx, groupID, update)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID string) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

type BoardAPIMock struct {
	mock.Mock
}

func (m *BoardAPIMock) CreateBoard(ctx context.Context, title string) (models.Board, error) {
	args := m.Called(ctx, title)
	var board models.Board
	if val := args.Get(0); val != nil {
		board = val.(models.Board)
	}
	return board, args.Error(1)
}

func (m *BoardAPIMock) GetBoard(ctx context.Context, boardID string) (models.BoardWithDetails, error) {
	args := m.Called(ctx, boardID)
	var details models.BoardWithDetails
	if val := args.Get(0); val != nil {
		details = val.(models.BoardWithDetails)
	}
	return details, args.Error(1)
}

func (m *BoardAPIMock) UpdateBoard(ctx context.Context, boardID string, patch client.BoardPatch) (models.Board, error) {
	args := m.Called(ctx, boardID, patch)
	var board models.Board
	if val := args.Get(0); val != nil {
		board = val.(models.Board)
	}
	return board, args.Error(1)
}

func (m *BoardAPIMock) CreateCard(ctx context.Context, req client.CreateCardRequest) (models.Card, error) {
	args := m.Called(ctx, req)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *BoardAPIMock) UpdateCard(ctx context.Context, cardID string, patch client.CardPatch) (models.Card, error) {
	args := m.Called(ctx, cardID, patch)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *BoardAPIMock) DeleteCard(ctx context.Context, cardID string) error {
	args := m.Called(ctx, cardID)
	return args.Error(0)
}

func (m *BoardAPIMock) VoteCard(ctx context.Context, cardID string) (models.Card, error) {
	args := m.Called(ctx, cardID)
	var card models.Card
	if val := args.Get(0); val != nil {
		card = val.(models.Card)
	}
	return card, args.Error(1)
}

func (m *BoardAPIMock) CreateGroup(ctx context.Context, req client.CreateGroupRequest) (models.Group, error) {
	args := m.Called(ctx, req)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *BoardAPIMock) UpdateGroup(ctx context.Context, groupID string, patch client.GroupPatch) (models.Group, error) {
	args := m.Called(ctx, groupID, patch)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *BoardAPIMock) DeleteGroup(ctx context.Context, groupID string) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *BoardAPIMock) AssignCardsToGroup(ctx context.Context, groupID string, cardIDs []string) error {
	args := m.Called(ctx, groupID, cardIDs)
	return args.Error(0)
}

var _ repositories.BoardRepository = (*BoardRepositoryMock)(nil)
var _ repositories.CardRepository = (*CardRepositoryMock)(nil)
var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ client.BoardAPI = (*BoardAPIMock)(nil)
