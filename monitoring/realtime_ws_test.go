package monitoring

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestHubPublishReachesClient(t *testing.T) {
	hub := NewHub([]string{"*"}, zap.NewNop().Sugar())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := hub.Publish(ReportUpdated, map[string]int{"rows": 20}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if msg.Type != ReportUpdated || msg.ID == "" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if string(msg.Data) != `{"rows":20}` {
		t.Fatalf("unexpected data: %s", msg.Data)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://quotes.example.com"})

	req := httptest.NewRequest("GET", "http://localhost:8501/api/ws/dashboard", nil)
	if !check(req) {
		t.Fatal("requests without Origin should pass")
	}
	req.Header.Set("Origin", "https://quotes.example.com")
	if !check(req) {
		t.Fatal("allowed origin rejected")
	}
	req.Header.Set("Origin", "http://localhost:8501")
	if !check(req) {
		t.Fatal("same-host origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Fatal("foreign origin accepted")
	}
}
