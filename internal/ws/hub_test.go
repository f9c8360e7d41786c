package ws

import "testing"

func TestHubAddAndRemoveBoardClient(t *testing.T) {
	hub := NewHub()

	hub.AddBoardClient("b1", nil, ConnInfo{ConnID: "c1"})
	if len(hub.boardRooms) != 1 {
		t.Fatalf("expected board room to be created")
	}
	if _, ok := hub.getConnInfo("b1", nil); !ok {
		t.Fatalf("expected conn info to be tracked")
	}

	hub.RemoveBoardClient("b1", nil)
	if len(hub.boardRooms) != 0 {
		t.Fatalf("expected board room to be removed")
	}
	if len(hub.connInfo) != 0 {
		t.Fatalf("expected conn info to be removed")
	}
}

func TestHubRemoveUnknownClient(t *testing.T) {
	hub := NewHub()

	// removing from a room that was never created must not panic
	hub.RemoveBoardClient("missing", nil)
}
