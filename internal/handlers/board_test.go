package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retroboard/internal/mocks"
	"retroboard/internal/models"
	"retroboard/internal/repositories"
	"retroboard/internal/ws"
)

func setupBoardRouter(handler *BoardHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/boards", handler.CreateBoard)
	r.GET("/boards/:board_id", handler.GetBoard)
	r.PATCH("/boards/:board_id", handler.UpdateBoard)
	return r
}

func TestCreateBoardSuccess(t *testing.T) {
	boardRepo := new(mocks.BoardRepositoryMock)
	handler := NewBoardHandler(boardRepo, ws.NewHub())
	router := setupBoardRouter(handler)

	boardRepo.On("CreateBoard", mock.Anything, "Sprint 12").
		Return(models.Board{ID: "b1", Title: "Sprint 12", Phase: models.PhaseGathering}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/boards", bytes.NewBufferString(`{"title":"  Sprint 12  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var board models.Board
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&board))
	assert.Equal(t, "b1", board.ID)
	assert.Equal(t, models.PhaseGathering, board.Phase)
	boardRepo.AssertExpectations(t)
}

func TestCreateBoardEmptyTitle(t *testing.T) {
	boardRepo := new(mocks.BoardRepositoryMock)
	handler := NewBoardHandler(boardRepo, ws.NewHub())
	router := setupBoardRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/boards", bytes.NewBufferString(`{"title":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	boardRepo.AssertNotCalled(t, "CreateBoard", mock.Anything, mock.Anything)
}

func TestGetBoardWithDetails(t *testing.T) {
	boardRepo := new(mocks.BoardRepositoryMock)
	handler := NewBoardHandler(boardRepo, ws.NewHub())
	router := setupBoardRouter(handler)

	details := models.BoardWithDetails{
		Board:   models.Board{ID: "b1", Title: "Sprint 12", Phase: models.PhaseVoting},
		Columns: []models.Column{{ID: "col-1", BoardID: "b1", Title: "Went Well"}},
		Cards:   []models.Card{{ID: "card-1", BoardID: "b1", ColumnID: "col-1", Content: "fast builds"}},
	}
	boardRepo.On("GetBoardWithDetails", mock.Anything, "b1").Return(details, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/boards/b1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.BoardWithDetails
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Columns, 1)
	assert.Len(t, resp.Cards, 1)
	boardRepo.AssertExpectations(t)
}

func TestGetBoardNotFound(t *testing.T) {
	boardRepo := new(mocks.BoardRepositoryMock)
	handler := NewBoardHandler(boardRepo, ws.NewHub())
	router := setupBoardRouter(handler)

	boardRepo.On("GetBoardWithDetails", mock.Anything, "missing").
		Return(models.BoardWithDetails{}, repositories.ErrBoardNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/boards/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	boardRepo.AssertExpectations(t)
}

func TestUpdateBoardPhase(t *testing.T) {
	boardRepo := new(mocks.BoardRepositoryMock)
	handler := NewBoardHandler(boardRepo, ws.NewHub())
	router := setupBoardRouter(handler)

	phase := models.PhaseVoting
	boardRepo.On("UpdateBoard", mock.Anything, "b1", repositories.BoardUpdate{Phase: &phase}).
		Return(models.Board{ID: "b1", Title: "Sprint 12", Phase: phase}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/boards/b1", bytes.NewBufferString(`{"phase":"voting"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	boardRepo.AssertExpectations(t)
}

func TestUpdateBoardInvalidPhase(t *testing.T) {
	boardRepo := new(mocks.BoardRepositoryMock)
	handler := NewBoardHandler(boardRepo, ws.NewHub())
	router := setupBoardRouter(handler)

	req := httptest.NewRequest(http.MethodPatch, "/boards/b1", bytes.NewBufferString(`{"phase":"shipping"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	boardRepo.AssertNotCalled(t, "UpdateBoard", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateBoardNothingToUpdate(t *testing.T) {
	boardRepo := new(mocks.BoardRepositoryMock)
	handler := NewBoardHandler(boardRepo, ws.NewHub())
	router := setupBoardRouter(handler)

	req := httptest.NewRequest(http.MethodPatch, "/boards/b1", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
