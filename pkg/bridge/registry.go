// Package bridge 将方法调用（方法名 + 参数表）转发到按播放器 ID 注册的弹幕覆盖层
//
// 参数表的形状与平台通道一致：数值可以是任意数字类型（JSON 解码后为 float64），
// 每次调用都必须携带 playerId。
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/danmaku"
)

// 错误码
const (
	CodeBadArgs        = "bad_args"
	CodeNoView         = "no_view"
	CodeNotImplemented = "not_implemented"
)

// 方法名
const (
	MethodAddDanmaku      = "addDanmaku"
	MethodAddDanmakuBatch = "addDanmakuBatch"
	MethodUpdateOption    = "updateOption"
	MethodClear           = "clear"
	MethodPause           = "pause"
	MethodResume          = "resume"
)

// MethodError 调用方错误，出现时覆盖层状态不会被修改
type MethodError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is 按错误码比较，便于 errors.Is(err, ErrNoView)
func (e *MethodError) Is(target error) bool {
	var other *MethodError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// 用于 errors.Is 的哨兵错误
var (
	ErrBadArgs        = &MethodError{Code: CodeBadArgs}
	ErrNoView         = &MethodError{Code: CodeNoView}
	ErrNotImplemented = &MethodError{Code: CodeNotImplemented}
)

func badArgs(format string, args ...any) error {
	return &MethodError{Code: CodeBadArgs, Message: fmt.Sprintf(format, args...)}
}

// Host 持有覆盖层并自行维护显示选项的宿主
//
// 通过 RegisterHost 注册后，updateOption 调用转给 ApplyOptions，
// 宿主据此同步自己的视口换算和设置存储。
type Host interface {
	Overlay() *danmaku.Overlay
	ApplyOptions(opts config.OverlayOptions)
}

// entry 注册表条目
type entry struct {
	overlay *danmaku.Overlay
	apply   func(config.OverlayOptions)
}

// Registry 播放器 ID 到覆盖层的映射
type Registry struct {
	mu      sync.RWMutex
	entries map[int64]entry
}

// NewRegistry 创建空的注册表
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]entry)}
}

// Register 注册覆盖层，已存在的同 ID 覆盖层会被释放并替换
func (r *Registry) Register(playerID int64, ov *danmaku.Overlay) {
	r.put(playerID, entry{overlay: ov, apply: ov.UpdateOption})
}

// RegisterHost 注册宿主，选项更新经由宿主的 ApplyOptions 生效
func (r *Registry) RegisterHost(playerID int64, h Host) {
	r.put(playerID, entry{overlay: h.Overlay(), apply: h.ApplyOptions})
}

func (r *Registry) put(playerID int64, e entry) {
	r.mu.Lock()
	old := r.entries[playerID]
	r.entries[playerID] = e
	r.mu.Unlock()

	if old.overlay != nil && old.overlay != e.overlay {
		old.overlay.Dispose()
	}
	log.Printf("[Bridge] Registered overlay for player %d", playerID)
}

// Unregister 移除并释放覆盖层（对应平台视图销毁）
func (r *Registry) Unregister(playerID int64) {
	r.mu.Lock()
	e, ok := r.entries[playerID]
	delete(r.entries, playerID)
	r.mu.Unlock()

	if ok {
		e.overlay.Dispose()
		log.Printf("[Bridge] Disposed overlay for player %d", playerID)
	}
}

// Get 查找覆盖层
func (r *Registry) Get(playerID int64) (*danmaku.Overlay, bool) {
	e, ok := r.lookup(playerID)
	return e.overlay, ok
}

func (r *Registry) lookup(playerID int64) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[playerID]
	return e, ok
}

// HandleMethodCall 分发一次方法调用
//
// 参数：
//   - method: 方法名
//   - args: 参数表，必须包含 playerId
//
// 返回：
//   - error: 调用方错误时为 *MethodError；因轨道繁忙丢弃的弹幕不算错误
func (r *Registry) HandleMethodCall(method string, args map[string]any) error {
	if args == nil {
		return badArgs("arguments are null")
	}
	playerID, ok := toInt64(args["playerId"])
	if !ok {
		return badArgs("playerId is required")
	}
	e, ok := r.lookup(playerID)
	if !ok {
		return &MethodError{Code: CodeNoView, Message: fmt.Sprintf("no overlay for playerId=%d", playerID)}
	}
	ov := e.overlay

	switch method {
	case MethodAddDanmaku:
		text, okText := args["text"].(string)
		argb, okColor := toARGB(args["color"])
		if !okText || !okColor {
			return badArgs("text/color required")
		}
		ov.AddDanmaku(text, argb)

	case MethodAddDanmakuBatch:
		list, ok := args["items"].([]any)
		if !ok {
			return badArgs("items must be a list")
		}
		ov.AddDanmakuBatch(batchItems(list))

	case MethodUpdateOption:
		e.apply(optionsFromArgs(args))

	case MethodClear:
		ov.ClearDanmaku()

	case MethodPause:
		ov.Pause()

	case MethodResume:
		ov.Resume()

	default:
		return &MethodError{Code: CodeNotImplemented, Message: fmt.Sprintf("unknown method %q", method)}
	}
	return nil
}

// batchItems 提取批量条目，缺少 text 或 color 的条目被跳过
func batchItems(list []any) []danmaku.Danmaku {
	items := make([]danmaku.Danmaku, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		text, okText := m["text"].(string)
		argb, okColor := toARGB(m["color"])
		if !okText || !okColor {
			continue
		}
		items = append(items, danmaku.Danmaku{Text: text, Color: argb})
	}
	return items
}

// optionsFromArgs 缺失或类型不对的字段取默认值，范围限制由覆盖层完成
func optionsFromArgs(args map[string]any) config.OverlayOptions {
	return config.OverlayOptions{
		Opacity:     toDouble(args["opacity"], config.DefaultOpacity),
		FontSize:    toDouble(args["fontSize"], config.DefaultFontSize),
		Area:        toDouble(args["area"], config.DefaultArea),
		Duration:    toDouble(args["duration"], config.DefaultDuration),
		HideScroll:  toBoolean(args["hideScroll"], false),
		StrokeWidth: toDouble(args["strokeWidth"], config.DefaultStrokeWidth),
		LineHeight:  toDouble(args["lineHeight"], config.DefaultLineHeight),
	}
}

func toDouble(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return def
}

func toBoolean(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// toARGB 颜色可以是有符号 32 位整数（平台侧 Color.toARGB32）或无符号值，只保留低 32 位
func toARGB(v any) (uint32, bool) {
	if u, ok := v.(uint32); ok {
		return u, true
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, false
	}
	return uint32(n), true
}
