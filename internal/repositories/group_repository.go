package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"retroboard/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

const groupColumns = `id, board_id, column_id, name, sort_order, created_at`

// GroupUpdate carries the optional fields of a group PATCH.
type GroupUpdate struct {
	Name      *string
	SortOrder *int
}

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, boardID string, columnID string, name string, sortOrder *int) (models.Group, error)
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
	UpdateGroup(ctx context.Context, groupID string, update GroupUpdate) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) (models.Group, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup inserts a group. When sortOrder is nil the group is appended
// after the column's current highest order.
func (r *GroupRepo) CreateGroup(ctx context.Context, boardID string, columnID string, name string, sortOrder *int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	order := 0
	if sortOrder != nil {
		order = *sortOrder
	} else {
		var max sql.NullInt64
		if err = tx.GetContext(ctx, &max,
			`SELECT MAX(sort_order) FROM groups WHERE board_id=$1 AND column_id=$2`, boardID, columnID); err != nil {
			return models.Group{}, err
		}
		if max.Valid {
			order = int(max.Int64) + 1
		}
	}

	var group models.Group
	if err = tx.GetContext(ctx, &group,
		`INSERT INTO groups (board_id, column_id, name, sort_order) VALUES ($1, $2, $3, $4) RETURNING `+groupColumns,
		boardID, columnID, name, order); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// UpdateGroup applies a partial update and returns the fresh row.
func (r *GroupRepo) UpdateGroup(ctx context.Context, groupID string, update GroupUpdate) (models.Group, error) {
	set := ""
	args := []any{}
	if update.Name != nil {
		args = append(args, *update.Name)
		set += fmt.Sprintf(", name=$%d", len(args))
	}
	if update.SortOrder != nil {
		args = append(args, *update.SortOrder)
		set += fmt.Sprintf(", sort_order=$%d", len(args))
	}
	if set == "" {
		return r.GetGroup(ctx, groupID)
	}
	args = append(args, groupID)

	var group models.Group
	err := r.db.GetContext(ctx, &group, fmt.Sprintf(
		`UPDATE groups SET %s WHERE id=$%d RETURNING `+groupColumns, set[2:], len(args)), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// DeleteGroup removes a group after nulling group_id on its member cards.
// Cards are never deleted with their group.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID string) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE cards SET group_id = NULL, updated_at=NOW() WHERE group_id=$1`, groupID); err != nil {
		return models.Group{}, err
	}

	var group models.Group
	err = tx.GetContext(ctx, &group, `DELETE FROM groups WHERE id=$1 RETURNING `+groupColumns, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	if err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}
