package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/betbot/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastToSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	one := dial(t, srv)
	all := dial(t, srv)
	if err := one.WriteJSON(ClientMsg{Type: "subscribe", MatchID: "m1"}); err != nil {
		t.Fatal(err)
	}
	if err := all.WriteJSON(ClientMsg{Type: "subscribe", MatchID: AllMatches}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return hub.Subscribers("m1") == 1 && hub.Subscribers(AllMatches) == 1 })

	hub.Broadcast(events.OddsUpdate{MatchID: "m2", HomeTeam: "X"})
	hub.Broadcast(events.OddsUpdate{MatchID: "m1", HomeTeam: "Chiefs"})

	var got ServerMsg
	_ = one.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := one.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != "odds" || got.MatchID != "m1" || got.Payload.HomeTeam != "Chiefs" {
		t.Fatalf("got %+v", got)
	}

	_ = all.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second ServerMsg
	if err := all.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if err := all.ReadJSON(&second); err != nil {
		t.Fatal(err)
	}
	if first.MatchID != "m2" || second.MatchID != "m1" {
		t.Fatalf("all-subscriber got %s then %s", first.MatchID, second.MatchID)
	}
}

func TestHubPingAndDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	_ = c.WriteJSON(ClientMsg{Type: "subscribe", MatchID: "m1"})
	_ = c.WriteJSON(ClientMsg{Type: "ping"})

	var pong ServerMsg
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := c.ReadJSON(&pong); err != nil || pong.Type != "pong" {
		t.Fatalf("pong = %+v, %v", pong, err)
	}
	waitFor(t, func() bool { return hub.Subscribers("m1") == 1 })

	c.Close()
	waitFor(t, func() bool { return hub.Subscribers("m1") == 0 })
}
