package client

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"retroboard/internal/models"
)

// Subscriber dials the board service's change feed and delivers decoded
// events to a callback.
type Subscriber struct {
	baseURL string
	dialer  *websocket.Dialer
}

// NewSubscriber constructs a Subscriber for the given service base URL.
func NewSubscriber(baseURL string) *Subscriber {
	return &Subscriber{baseURL: strings.TrimRight(baseURL, "/"), dialer: websocket.DefaultDialer}
}

// Subscribe opens a change-feed subscription scoped to one board. Events are
// delivered sequentially from a single reader goroutine until the returned
// cancel function is called, the context ends, or the connection drops.
func (s *Subscriber) Subscribe(ctx context.Context, boardID string, onEvent func(models.ChangeEvent)) (func(), error) {
	url := wsURL(s.baseURL) + "/ws/boards/" + boardID

	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			conn.Close()
			<-done
		})
	}

	go func() {
		defer close(done)
		defer conn.Close()
		for {
			var ev models.ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
					ctx.Err() == nil {
					log.Printf("change feed closed: %v", err)
				}
				return
			}
			onEvent(ev)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	return cancel, nil
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
