package repositories

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"retroboard/internal/models"
)

var ErrBoardNotFound = errors.New("board not found")

// BoardUpdate carries the optional fields of a board PATCH.
type BoardUpdate struct {
	Title *string
	Phase *models.BoardPhase
}

// BoardRepository abstracts board persistence.
type BoardRepository interface {
	CreateBoard(ctx context.Context, title string) (models.Board, error)
	GetBoard(ctx context.Context, boardID string) (models.Board, error)
	GetBoardWithDetails(ctx context.Context, boardID string) (models.BoardWithDetails, error)
	UpdateBoard(ctx context.Context, boardID string, update BoardUpdate) (models.Board, error)
}

// BoardRepo is a sqlx implementation of BoardRepository.
type BoardRepo struct {
	db *sqlx.DB
}

// NewBoardRepo constructs a BoardRepo.
func NewBoardRepo(db *sqlx.DB) *BoardRepo {
	return &BoardRepo{db: db}
}

// CreateBoard creates a board and seeds its template columns atomically.
func (r *BoardRepo) CreateBoard(ctx context.Context, title string) (models.Board, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Board{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	invite, err := newInviteCode()
	if err != nil {
		return models.Board{}, err
	}

	var board models.Board
	if err = tx.GetContext(ctx, &board,
		`INSERT INTO boards (title, invite_code, phase, is_public) VALUES ($1, $2, $3, TRUE)
         RETURNING id, title, invite_code, phase, is_public, created_at, updated_at`,
		title, invite, models.PhaseGathering); err != nil {
		return models.Board{}, err
	}

	for i, colTitle := range models.DefaultColumnTitles {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO columns (board_id, title, sort_order) VALUES ($1, $2, $3)`,
			board.ID, colTitle, i); err != nil {
			return models.Board{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Board{}, err
	}
	return board, nil
}

// GetBoard fetches a board row by id.
func (r *BoardRepo) GetBoard(ctx context.Context, boardID string) (models.Board, error) {
	var board models.Board
	err := r.db.GetContext(ctx, &board,
		`SELECT id, title, invite_code, phase, is_public, created_at, updated_at FROM boards WHERE id=$1`, boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, ErrBoardNotFound
	}
	return board, err
}

// GetBoardWithDetails composes the board with its columns, cards, and groups.
func (r *BoardRepo) GetBoardWithDetails(ctx context.Context, boardID string) (models.BoardWithDetails, error) {
	board, err := r.GetBoard(ctx, boardID)
	if err != nil {
		return models.BoardWithDetails{}, err
	}

	details := models.BoardWithDetails{Board: board}
	if err := r.db.SelectContext(ctx, &details.Columns,
		`SELECT id, board_id, title, sort_order, created_at, updated_at FROM columns WHERE board_id=$1 ORDER BY sort_order`, boardID); err != nil {
		return models.BoardWithDetails{}, err
	}
	if err := r.db.SelectContext(ctx, &details.Cards,
		`SELECT id, board_id, column_id, content, author, votes, group_id, created_at, updated_at FROM cards WHERE board_id=$1 ORDER BY votes DESC, created_at`, boardID); err != nil {
		return models.BoardWithDetails{}, err
	}
	if err := r.db.SelectContext(ctx, &details.Groups,
		`SELECT id, board_id, column_id, name, sort_order, created_at FROM groups WHERE board_id=$1 ORDER BY sort_order`, boardID); err != nil {
		return models.BoardWithDetails{}, err
	}
	return details, nil
}

// UpdateBoard applies a partial update and returns the fresh row.
func (r *BoardRepo) UpdateBoard(ctx context.Context, boardID string, update BoardUpdate) (models.Board, error) {
	set := ""
	args := []any{}
	if update.Title != nil {
		args = append(args, *update.Title)
		set += fmt.Sprintf(", title=$%d", len(args))
	}
	if update.Phase != nil {
		args = append(args, *update.Phase)
		set += fmt.Sprintf(", phase=$%d", len(args))
	}
	args = append(args, boardID)

	var board models.Board
	err := r.db.GetContext(ctx, &board, fmt.Sprintf(
		`UPDATE boards SET updated_at=NOW()%s WHERE id=$%d
         RETURNING id, title, invite_code, phase, is_public, created_at, updated_at`, set, len(args)), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, ErrBoardNotFound
	}
	return board, err
}

func newInviteCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := hex.EncodeToString(buf)
	return fmt.Sprintf("%s-%s-%s", code[0:4], code[4:8], code[8:12]), nil
}
