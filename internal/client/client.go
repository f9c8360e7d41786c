package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"retroboard/internal/models"
)

// APIError is a non-2xx response from the board service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// BoardPatch carries the optional fields of a board PATCH.
type BoardPatch struct {
	Title *string            `json:"title,omitempty"`
	Phase *models.BoardPhase `json:"phase,omitempty"`
}

// CreateCardRequest is the payload of POST /cards. ID is optional; clients
// doing optimistic inserts supply their own.
type CreateCardRequest struct {
	ID       string  `json:"id,omitempty"`
	BoardID  string  `json:"board_id"`
	ColumnID string  `json:"column_id"`
	Content  string  `json:"content"`
	Author   *string `json:"author,omitempty"`
}

// CardPatch carries the optional fields of a card PATCH. SetAuthor and
// SetGroupID distinguish "leave unchanged" from "clear to null".
type CardPatch struct {
	Content    *string
	Author     *string
	SetAuthor  bool
	GroupID    *string
	SetGroupID bool
}

// MarshalJSON emits only the fields the patch actually sets, with explicit
// nulls for cleared ones.
func (p CardPatch) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if p.Content != nil {
		body["content"] = *p.Content
	}
	if p.SetAuthor {
		body["author"] = p.Author
	}
	if p.SetGroupID {
		body["group_id"] = p.GroupID
	}
	return json.Marshal(body)
}

// CreateGroupRequest is the payload of POST /groups.
type CreateGroupRequest struct {
	BoardID   string `json:"board_id"`
	ColumnID  string `json:"column_id"`
	Name      string `json:"name"`
	SortOrder *int   `json:"sort_order,omitempty"`
}

// GroupPatch carries the optional fields of a group PATCH.
type GroupPatch struct {
	Name      *string `json:"name,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

// BoardAPI is the remote mutation surface of the board service. It is purely
// request/response: implementations never touch client-side snapshot state,
// and failures come back as errors so callers can roll back deterministically.
type BoardAPI interface {
	CreateBoard(ctx context.Context, title string) (models.Board, error)
	GetBoard(ctx context.Context, boardID string) (models.BoardWithDetails, error)
	UpdateBoard(ctx context.Context, boardID string, patch BoardPatch) (models.Board, error)
	CreateCard(ctx context.Context, req CreateCardRequest) (models.Card, error)
	UpdateCard(ctx context.Context, cardID string, patch CardPatch) (models.Card, error)
	DeleteCard(ctx context.Context, cardID string) error
	VoteCard(ctx context.Context, cardID string) (models.Card, error)
	CreateGroup(ctx context.Context, req CreateGroupRequest) (models.Group, error)
	UpdateGroup(ctx context.Context, groupID string, patch GroupPatch) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	AssignCardsToGroup(ctx context.Context, groupID string, cardIDs []string) error
}

// Client is the HTTP implementation of BoardAPI.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client for the given service base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateBoard creates a board with its template columns.
func (c *Client) CreateBoard(ctx context.Context, title string) (models.Board, error) {
	var board models.Board
	err := c.do(ctx, http.MethodPost, "/boards", map[string]string{"title": title}, &board)
	return board, err
}

// GetBoard fetches the full board snapshot.
func (c *Client) GetBoard(ctx context.Context, boardID string) (models.BoardWithDetails, error) {
	var details models.BoardWithDetails
	err := c.do(ctx, http.MethodGet, "/boards/"+boardID, nil, &details)
	return details, err
}

// UpdateBoard applies a partial board update.
func (c *Client) UpdateBoard(ctx context.Context, boardID string, patch BoardPatch) (models.Board, error) {
	var board models.Board
	err := c.do(ctx, http.MethodPatch, "/boards/"+boardID, patch, &board)
	return board, err
}

// CreateCard creates a card, honoring a client-supplied id.
func (c *Client) CreateCard(ctx context.Context, req CreateCardRequest) (models.Card, error) {
	var card models.Card
	err := c.do(ctx, http.MethodPost, "/cards", req, &card)
	return card, err
}

// UpdateCard applies a partial card update.
func (c *Client) UpdateCard(ctx context.Context, cardID string, patch CardPatch) (models.Card, error) {
	var card models.Card
	err := c.do(ctx, http.MethodPatch, "/cards/"+cardID, patch, &card)
	return card, err
}

// DeleteCard deletes a card.
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	return c.do(ctx, http.MethodDelete, "/cards/"+cardID, nil, nil)
}

// VoteCard asks the server to increment the card's votes by one.
func (c *Client) VoteCard(ctx context.Context, cardID string) (models.Card, error) {
	var card models.Card
	err := c.do(ctx, http.MethodPost, "/cards/"+cardID+"/vote", nil, &card)
	return card, err
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (models.Group, error) {
	var group models.Group
	err := c.do(ctx, http.MethodPost, "/groups", req, &group)
	return group, err
}

// UpdateGroup renames or reorders a group.
func (c *Client) UpdateGroup(ctx context.Context, groupID string, patch GroupPatch) (models.Group, error) {
	var group models.Group
	err := c.do(ctx, http.MethodPatch, "/groups/"+groupID, patch, &group)
	return group, err
}

// DeleteGroup deletes a group, ungrouping its cards server-side.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodDelete, "/groups/"+groupID, nil, nil)
}

// AssignCardsToGroup bulk-assigns cards to a group.
func (c *Client) AssignCardsToGroup(ctx context.Context, groupID string, cardIDs []string) error {
	return c.do(ctx, http.MethodPost, "/groups/"+groupID+"/cards", map[string][]string{"card_ids": cardIDs}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ BoardAPI = (*Client)(nil)
