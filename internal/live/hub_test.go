package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub, vehicleID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Subscribe(conn, vehicleID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial(strings.Replace(srv.URL, "http", "ws", 1), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubRoomDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	subscribed := dialHub(t, hub, "v-1")
	other := dialHub(t, hub, "v-2")

	// 等订阅注册完成
	time.Sleep(50 * time.Millisecond)

	hub.Publish(ctx, VehicleUpdate{VehicleID: "v-1", CompanyID: "c-1", OdometerKM: 123.4, CapturedAt: time.Now()})

	subscribed.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := subscribed.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got VehicleUpdate
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.VehicleID != "v-1" || got.OdometerKM != 123.4 {
		t.Fatalf("unexpected payload: %+v", got)
	}

	// 别的房间不应收到
	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatal("client in another room received the update")
	}
}

func TestHubShutdownReleasesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	conn := dialHub(t, hub, "v-1")
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// 服务端应主动关连接，客户端读到错误而不是挂死
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to close after shutdown")
	}

	// 停机后的订阅不能阻塞（没有 Run 协程接收注册）
	done := make(chan struct{})
	go func() {
		dialHub(t, hub, "v-2")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe blocked after hub shutdown")
	}
}

func TestFanoutSetsOriginAndSkipsNil(t *testing.T) {
	var got VehicleUpdate
	rec := publisherFunc(func(_ context.Context, u VehicleUpdate) { got = u })
	f := NewFanout("node-1", nil, rec)

	f.Publish(context.Background(), VehicleUpdate{VehicleID: "v-1"})
	if got.Origin != "node-1" {
		t.Fatalf("origin = %q, want node-1", got.Origin)
	}
	if got.VehicleID != "v-1" {
		t.Fatalf("vehicle_id = %q", got.VehicleID)
	}
}

type publisherFunc func(context.Context, VehicleUpdate)

func (f publisherFunc) Publish(ctx context.Context, u VehicleUpdate) { f(ctx, u) }
