package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Request 一次方法调用请求
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Args   map[string]any  `json:"args"`
}

// Response 方法调用结果，成功时 Error 为空
type Response struct {
	ID    json.RawMessage `json:"id,omitempty"`
	OK    bool            `json:"ok"`
	Error *MethodError    `json:"error,omitempty"`
}

// Server 通过 WebSocket 接收方法调用的桥接服务
//
// 每个连接顺序处理消息：读取一条 JSON 请求，分发到 Registry，写回一条 JSON 结果。
type Server struct {
	registry *Registry
	upgrader websocket.Upgrader
}

// NewServer 创建桥接服务
func NewServer(registry *Registry) *Server {
	return &Server{
		registry: registry,
		upgrader: websocket.Upgrader{
			// 本地调试工具，允许任意来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP 升级为 WebSocket 连接并处理消息直到连接关闭
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Bridge] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[Bridge] Client connected: %s", r.RemoteAddr)
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Bridge] Read error: %v", err)
			}
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}

		reply, err := json.Marshal(s.Dispatch(msg))
		if err != nil {
			log.Printf("[Bridge] Encode reply failed: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			log.Printf("[Bridge] Write error: %v", err)
			return
		}
	}
}

// Dispatch 解码一条请求并执行
func (s *Server) Dispatch(msg []byte) Response {
	var req Request
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return Response{Error: &MethodError{Code: CodeBadArgs, Message: fmt.Sprintf("invalid request: %v", err)}}
	}

	if err := s.registry.HandleMethodCall(req.Method, req.Args); err != nil {
		var me *MethodError
		if !errors.As(err, &me) {
			me = &MethodError{Code: CodeBadArgs, Message: err.Error()}
		}
		return Response{ID: req.ID, Error: me}
	}
	return Response{ID: req.ID, OK: true}
}

// ListenAndServe 在 addr 上提供 /ws 端点，ctx 取消时关闭服务
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Bridge] Listening on ws://%s/ws", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown bridge server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bridge server: %w", err)
	}
}
