package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"retroboard/internal/models"
)

var ErrCardNotFound = errors.New("card not found")

const cardColumns = `id, board_id, column_id, content, author, votes, group_id, created_at, updated_at`

// CardUpdate carries the optional fields of a card PATCH. GroupID
// distinguishes "not provided" (nil) from "set to null" (SetGroupID with a
// nil value).
type CardUpdate struct {
	Content    *string
	Author     *string
	SetAuthor  bool
	GroupID    *string
	SetGroupID bool
}

// CardRepository abstracts card persistence.
type CardRepository interface {
	CreateCard(ctx context.Context, id string, boardID string, columnID string, content string, author *string) (models.Card, error)
	GetCard(ctx context.Context, cardID string) (models.Card, error)
	UpdateCard(ctx context.Context, cardID string, update CardUpdate) (models.Card, error)
	DeleteCard(ctx context.Context, cardID string) (models.Card, error)
	IncrementVotes(ctx context.Context, cardID string) (models.Card, error)
	AssignCardsToGroup(ctx context.Context, groupID string, cardIDs []string) ([]models.Card, error)
}

// CardRepo is a sqlx implementation of CardRepository.
type CardRepo struct {
	db *sqlx.DB
}

// NewCardRepo constructs a CardRepo.
func NewCardRepo(db *sqlx.DB) *CardRepo {
	return &CardRepo{db: db}
}

// CreateCard inserts a card. An empty id lets the database generate one;
// clients doing optimistic inserts supply their own so the confirmed row
// carries the same identity.
func (r *CardRepo) CreateCard(ctx context.Context, id string, boardID string, columnID string, content string, author *string) (models.Card, error) {
	var card models.Card
	var err error
	if id == "" {
		err = r.db.GetContext(ctx, &card,
			`INSERT INTO cards (board_id, column_id, content, author) VALUES ($1, $2, $3, $4) RETURNING `+cardColumns,
			boardID, columnID, content, author)
	} else {
		err = r.db.GetContext(ctx, &card,
			`INSERT INTO cards (id, board_id, column_id, content, author) VALUES ($1, $2, $3, $4, $5) RETURNING `+cardColumns,
			id, boardID, columnID, content, author)
	}
	return card, err
}

// GetCard fetches a card row by id.
func (r *CardRepo) GetCard(ctx context.Context, cardID string) (models.Card, error) {
	var card models.Card
	err := r.db.GetContext(ctx, &card, `SELECT `+cardColumns+` FROM cards WHERE id=$1`, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, ErrCardNotFound
	}
	return card, err
}

// UpdateCard applies a partial update and returns the fresh row.
func (r *CardRepo) UpdateCard(ctx context.Context, cardID string, update CardUpdate) (models.Card, error) {
	set := ""
	args := []any{}
	if update.Content != nil {
		args = append(args, *update.Content)
		set += fmt.Sprintf(", content=$%d", len(args))
	}
	if update.SetAuthor {
		args = append(args, update.Author)
		set += fmt.Sprintf(", author=$%d", len(args))
	}
	if update.SetGroupID {
		args = append(args, update.GroupID)
		set += fmt.Sprintf(", group_id=$%d", len(args))
	}
	args = append(args, cardID)

	var card models.Card
	err := r.db.GetContext(ctx, &card, fmt.Sprintf(
		`UPDATE cards SET updated_at=NOW()%s WHERE id=$%d RETURNING `+cardColumns, set, len(args)), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, ErrCardNotFound
	}
	return card, err
}

// DeleteCard removes a card and returns the deleted row for event payloads.
func (r *CardRepo) DeleteCard(ctx context.Context, cardID string) (models.Card, error) {
	var card models.Card
	err := r.db.GetContext(ctx, &card, `DELETE FROM cards WHERE id=$1 RETURNING `+cardColumns, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, ErrCardNotFound
	}
	return card, err
}

// IncrementVotes adds one vote inside the database so concurrent votes from
// different clients are never lost.
func (r *CardRepo) IncrementVotes(ctx context.Context, cardID string) (models.Card, error) {
	var card models.Card
	err := r.db.GetContext(ctx, &card,
		`UPDATE cards SET votes = votes + 1, updated_at=NOW() WHERE id=$1 RETURNING `+cardColumns, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, ErrCardNotFound
	}
	return card, err
}

// AssignCardsToGroup bulk-assigns cards to a group and returns the updated
// rows so callers can broadcast one UPDATE event per card.
func (r *CardRepo) AssignCardsToGroup(ctx context.Context, groupID string, cardIDs []string) ([]models.Card, error) {
	if len(cardIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`UPDATE cards SET group_id = ?, updated_at=NOW() WHERE id IN (?) RETURNING `+cardColumns, groupID, cardIDs)
	if err != nil {
		return nil, err
	}
	var cards []models.Card
	err = r.db.SelectContext(ctx, &cards, r.db.Rebind(query), args...)
	return cards, err
}
