package bridge

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Response {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("WriteMessage() error: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode reply %s: %v", data, err)
	}
	return resp
}

// TestServerRoundTrip 测试通过 WebSocket 调用方法
func TestServerRoundTrip(t *testing.T) {
	r, ov := newTestRegistry(t)
	conn := dialTestServer(t, NewServer(r))

	resp := roundTrip(t, conn, `{"id":1,"method":"addDanmakuBatch","args":{"playerId":7,"items":[{"text":"hi"},{"text":"ok","color":4294967295}]}}`)
	if !resp.OK || resp.Error != nil {
		t.Fatalf("reply = %+v, want ok", resp)
	}
	if string(resp.ID) != "1" {
		t.Errorf("reply id = %s, want 1", resp.ID)
	}
	items := ov.Items()
	if len(items) != 1 || items[0].Text != "ok" {
		t.Errorf("items = %+v, want only \"ok\"", items)
	}

	resp = roundTrip(t, conn, `{"id":"p","method":"pause","args":{"playerId":7}}`)
	if !resp.OK {
		t.Fatalf("pause reply = %+v", resp)
	}
	if !ov.IsPaused() {
		t.Error("overlay not paused")
	}
}

// TestServerErrors 测试错误结果
func TestServerErrors(t *testing.T) {
	r, _ := newTestRegistry(t)
	conn := dialTestServer(t, NewServer(r))

	tests := []struct {
		name     string
		msg      string
		wantCode string
	}{
		{"非法 JSON", `{not json`, CodeBadArgs},
		{"缺少参数", `{"id":2,"method":"clear"}`, CodeBadArgs},
		{"未知播放器", `{"id":3,"method":"clear","args":{"playerId":1}}`, CodeNoView},
		{"未知方法", `{"id":4,"method":"seek","args":{"playerId":7}}`, CodeNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := roundTrip(t, conn, tt.msg)
			if resp.OK {
				t.Fatalf("reply ok, want error %s", tt.wantCode)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("reply error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

// TestDispatchEchoesID 测试不经网络直接分发
func TestDispatchEchoesID(t *testing.T) {
	r, ov := newTestRegistry(t)
	srv := NewServer(r)

	resp := srv.Dispatch([]byte(`{"id":42,"method":"addDanmaku","args":{"playerId":7,"text":"hello","color":-1}}`))
	if !resp.OK {
		t.Fatalf("Dispatch() = %+v, want ok", resp)
	}
	if string(resp.ID) != "42" {
		t.Errorf("id = %s, want 42", resp.ID)
	}
	if ov.Stats().Live != 1 {
		t.Errorf("Live = %d, want 1", ov.Stats().Live)
	}
}
