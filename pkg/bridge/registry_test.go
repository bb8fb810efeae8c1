package bridge

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/danmaku"
)

const testPlayerID = 7

// newTestOverlay 创建 1000x1080 视口、时钟固定为 0 的覆盖层
func newTestOverlay(t *testing.T) *danmaku.Overlay {
	t.Helper()
	ov, err := danmaku.NewOverlay(danmaku.Capabilities{
		Measurer: danmaku.MeasureFunc(func(text string, sizePx float64) float64 {
			return float64(utf8.RuneCountInString(text)) * 10
		}),
		Viewport: danmaku.ViewportFunc(func() (float64, float64) { return 1000, 1080 }),
		Clock:    danmaku.ClockFunc(func() int64 { return 0 }),
	})
	if err != nil {
		t.Fatalf("NewOverlay() error: %v", err)
	}
	return ov
}

func newTestRegistry(t *testing.T) (*Registry, *danmaku.Overlay) {
	t.Helper()
	r := NewRegistry()
	ov := newTestOverlay(t)
	r.Register(testPlayerID, ov)
	return r, ov
}

// TestHandleMethodCallErrors 测试调用方错误
func TestHandleMethodCallErrors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		args    map[string]any
		wantErr error
	}{
		{"参数为空", MethodAddDanmaku, nil, ErrBadArgs},
		{"缺少 playerId", MethodAddDanmaku, map[string]any{"text": "hi", "color": 1}, ErrBadArgs},
		{"playerId 类型错误", MethodClear, map[string]any{"playerId": "7"}, ErrBadArgs},
		{"未知播放器", MethodClear, map[string]any{"playerId": 99}, ErrNoView},
		{"未知方法", "seek", map[string]any{"playerId": testPlayerID}, ErrNotImplemented},
		{"缺少颜色", MethodAddDanmaku, map[string]any{"playerId": testPlayerID, "text": "hi"}, ErrBadArgs},
		{"缺少文本", MethodAddDanmaku, map[string]any{"playerId": testPlayerID, "color": 1}, ErrBadArgs},
		{"文本类型错误", MethodAddDanmaku, map[string]any{"playerId": testPlayerID, "text": 5, "color": 1}, ErrBadArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ov := newTestRegistry(t)

			err := r.HandleMethodCall(tt.method, tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HandleMethodCall() error = %v, want %v", err, tt.wantErr)
			}
			var me *MethodError
			if !errors.As(err, &me) || me.Message == "" {
				t.Errorf("error %v should be a *MethodError with a message", err)
			}
			if stats := ov.Stats(); stats.Live != 0 || stats.Paused {
				t.Errorf("caller error mutated state: %+v", stats)
			}
		})
	}
}

// TestHandleAddDanmaku 测试各种数字类型的颜色
func TestHandleAddDanmaku(t *testing.T) {
	tests := []struct {
		name  string
		color any
		want  uint32
	}{
		{"有符号整数", -1, 0xFFFFFFFF},
		{"JSON 浮点数", float64(0xFF00FF00), 0xFF00FF00},
		{"无符号整数", uint32(0x80FFFFFF), 0x80FFFFFF},
		{"int64", int64(0xFF123456), 0xFF123456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ov := newTestRegistry(t)
			err := r.HandleMethodCall(MethodAddDanmaku, map[string]any{
				"playerId": float64(testPlayerID),
				"text":     "hello",
				"color":    tt.color,
			})
			if err != nil {
				t.Fatalf("HandleMethodCall() error: %v", err)
			}
			items := ov.Items()
			if len(items) != 1 {
				t.Fatalf("Items() len = %d, want 1", len(items))
			}
			if got := danmaku.ARGB(items[0].Color); got != tt.want {
				t.Errorf("color = %#x, want %#x", got, tt.want)
			}
		})
	}
}

// TestHandleAddDanmakuBatchSkipsMalformed 测试批量提交时跳过缺字段的条目
func TestHandleAddDanmakuBatchSkipsMalformed(t *testing.T) {
	r, ov := newTestRegistry(t)

	err := r.HandleMethodCall(MethodAddDanmakuBatch, map[string]any{
		"playerId": testPlayerID,
		"items": []any{
			map[string]any{"text": "first", "color": -1},
			map[string]any{"text": "hi"},
			"not a map",
			map[string]any{"color": -1},
			map[string]any{"text": "second", "color": float64(0xFFFF0000)},
		},
	})
	if err != nil {
		t.Fatalf("HandleMethodCall() error: %v", err)
	}

	items := ov.Items()
	if len(items) != 2 {
		t.Fatalf("Items() len = %d, want 2", len(items))
	}
	if items[0].Text != "first" || items[1].Text != "second" {
		t.Errorf("texts = %q, %q; want first, second", items[0].Text, items[1].Text)
	}
}

// TestHandleAddDanmakuBatchBadItems 测试 items 缺失或不是列表时返回 bad_args
func TestHandleAddDanmakuBatchBadItems(t *testing.T) {
	tests := []struct {
		name  string
		items any
		set   bool
	}{
		{name: "缺少 items"},
		{name: "items 为对象", items: map[string]any{"text": "hi", "color": -1}, set: true},
		{name: "items 为字符串", items: "hi", set: true},
		{name: "items 为 null", items: nil, set: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ov := newTestRegistry(t)
			args := map[string]any{"playerId": testPlayerID}
			if tt.set {
				args["items"] = tt.items
			}

			err := r.HandleMethodCall(MethodAddDanmakuBatch, args)
			if !errors.Is(err, ErrBadArgs) {
				t.Errorf("error = %v, want bad_args", err)
			}
			if ov.Stats().Live != 0 {
				t.Errorf("Live = %d, want 0", ov.Stats().Live)
			}
		})
	}

	t.Run("空列表", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		err := r.HandleMethodCall(MethodAddDanmakuBatch, map[string]any{"playerId": testPlayerID, "items": []any{}})
		if err != nil {
			t.Errorf("empty list error = %v, want nil", err)
		}
	})
}

// TestHandleUpdateOption 测试缺省值与范围限制
func TestHandleUpdateOption(t *testing.T) {
	r, ov := newTestRegistry(t)

	err := r.HandleMethodCall(MethodUpdateOption, map[string]any{
		"playerId":   testPlayerID,
		"fontSize":   30,
		"opacity":    "half",
		"area":       5.0,
		"duration":   1.0,
		"hideScroll": true,
	})
	if err != nil {
		t.Fatalf("HandleMethodCall() error: %v", err)
	}

	got := ov.Options()
	want := config.OverlayOptions{
		Opacity:     config.DefaultOpacity,
		FontSize:    30,
		Area:        config.MaxArea,
		Duration:    config.MinDuration,
		HideScroll:  true,
		StrokeWidth: config.DefaultStrokeWidth,
		LineHeight:  config.DefaultLineHeight,
	}
	if got != want {
		t.Errorf("Options() = %+v, want %+v", got, want)
	}
}

// TestHandlePauseResumeClear 测试暂停、恢复、清屏
func TestHandlePauseResumeClear(t *testing.T) {
	r, ov := newTestRegistry(t)
	args := map[string]any{"playerId": testPlayerID}

	ov.AddDanmaku("hello", 0xFFFFFFFF)

	if err := r.HandleMethodCall(MethodPause, args); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !ov.IsPaused() {
		t.Error("overlay not paused")
	}
	if err := r.HandleMethodCall(MethodResume, args); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if ov.IsPaused() {
		t.Error("overlay still paused")
	}
	if err := r.HandleMethodCall(MethodClear, args); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if ov.Stats().Live != 0 {
		t.Errorf("Live = %d after clear, want 0", ov.Stats().Live)
	}
}

// TestRegistryLifecycle 测试注册、替换与注销
func TestRegistryLifecycle(t *testing.T) {
	r, old := newTestRegistry(t)
	old.AddDanmaku("old", 0xFFFFFFFF)

	replacement := newTestOverlay(t)
	r.Register(testPlayerID, replacement)

	if got, _ := r.Get(testPlayerID); got != replacement {
		t.Error("Get() did not return the replacement overlay")
	}
	if old.Stats().Live != 0 {
		t.Error("replaced overlay was not disposed")
	}

	r.Unregister(testPlayerID)
	err := r.HandleMethodCall(MethodClear, map[string]any{"playerId": testPlayerID})
	if !errors.Is(err, ErrNoView) {
		t.Errorf("after Unregister error = %v, want no_view", err)
	}

	// 注销不存在的 ID 不应 panic
	r.Unregister(12345)
}

// recordingHost 记录 ApplyOptions 调用的宿主
type recordingHost struct {
	overlay *danmaku.Overlay
	applied []config.OverlayOptions
}

func (h *recordingHost) Overlay() *danmaku.Overlay { return h.overlay }

func (h *recordingHost) ApplyOptions(opts config.OverlayOptions) {
	h.applied = append(h.applied, opts)
	h.overlay.UpdateOption(opts)
}

// TestRegisterHostRoutesOptions 测试宿主注册后选项更新经由宿主生效
func TestRegisterHostRoutesOptions(t *testing.T) {
	r := NewRegistry()
	host := &recordingHost{overlay: newTestOverlay(t)}
	r.RegisterHost(testPlayerID, host)

	if got, ok := r.Get(testPlayerID); !ok || got != host.overlay {
		t.Fatal("Get() did not return the host overlay")
	}

	err := r.HandleMethodCall(MethodUpdateOption, map[string]any{
		"playerId":   testPlayerID,
		"fontSize":   20,
		"lineHeight": 1.0,
	})
	if err != nil {
		t.Fatalf("HandleMethodCall() error: %v", err)
	}

	if len(host.applied) != 1 {
		t.Fatalf("ApplyOptions calls = %d, want 1", len(host.applied))
	}
	if got := host.applied[0]; got.FontSize != 20 || got.LineHeight != 1.0 || got.Opacity != config.DefaultOpacity {
		t.Errorf("applied options = %+v, want fontSize 20 lineHeight 1 default opacity", got)
	}
	if got := host.overlay.Options().FontSize; got != 20 {
		t.Errorf("overlay FontSize = %v, want 20", got)
	}

	// 其他方法直接作用于覆盖层
	if err := r.HandleMethodCall(MethodPause, map[string]any{"playerId": testPlayerID}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !host.overlay.IsPaused() {
		t.Error("overlay not paused")
	}
	if len(host.applied) != 1 {
		t.Errorf("pause called ApplyOptions")
	}
}
