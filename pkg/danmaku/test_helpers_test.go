package danmaku

import (
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/gonewx/danmaku/pkg/config"
)

// 测试用外部能力

const testCharWidth = 10.0

type fakeClock struct {
	now atomic.Int64
}

func (c *fakeClock) NowMs() int64     { return c.now.Load() }
func (c *fakeClock) Set(ms int64)     { c.now.Store(ms) }
func (c *fakeClock) Advance(ms int64) { c.now.Add(ms) }

type fakeViewport struct {
	mu   sync.Mutex
	w, h float64
}

func (v *fakeViewport) Size() (float64, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.w, v.h
}

func (v *fakeViewport) Resize(w, h float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.w, v.h = w, h
}

type redrawCounter struct {
	n atomic.Int64
}

func (r *redrawCounter) RequestRedraw() { r.n.Add(1) }
func (r *redrawCounter) Count() int64   { return r.n.Load() }

// 每个字符固定 10 像素，与字号无关，方便手算
var fixedMeasurer = MeasureFunc(func(text string, sizePx float64) float64 {
	return float64(utf8.RuneCountInString(text)) * testCharWidth
})

type drawCall struct {
	kind        string // "stroke" / "fill"
	text        string
	x, y        float64
	sizePx      float64
	strokeWidth float64
	clr         color.NRGBA
}

type recordingCanvas struct {
	calls []drawCall
}

func (c *recordingCanvas) StrokeText(text string, x, y, sizePx, strokeWidth float64, clr color.NRGBA) {
	c.calls = append(c.calls, drawCall{"stroke", text, x, y, sizePx, strokeWidth, clr})
}

func (c *recordingCanvas) FillText(text string, x, y, sizePx float64, clr color.NRGBA) {
	c.calls = append(c.calls, drawCall{"fill", text, x, y, sizePx, 0, clr})
}

func (c *recordingCanvas) fills() []drawCall {
	var out []drawCall
	for _, call := range c.calls {
		if call.kind == "fill" {
			out = append(out, call)
		}
	}
	return out
}

type testOverlay struct {
	*Overlay
	clock    *fakeClock
	viewport *fakeViewport
	redraws  *redrawCounter
}

// newTestOverlay 创建 1000x1080 视口、10 秒时长的覆盖层（10 条轨道）
func newTestOverlay(t *testing.T) *testOverlay {
	t.Helper()
	return newTestOverlaySized(t, 1000, 1080)
}

func newTestOverlaySized(t *testing.T, w, h float64) *testOverlay {
	t.Helper()

	clock := &fakeClock{}
	viewport := &fakeViewport{w: w, h: h}
	redraws := &redrawCounter{}

	ov, err := NewOverlay(Capabilities{
		Measurer: fixedMeasurer,
		Viewport: viewport,
		Clock:    clock,
		Redraw:   redraws,
	})
	if err != nil {
		t.Fatalf("NewOverlay() error: %v", err)
	}
	return &testOverlay{Overlay: ov, clock: clock, viewport: viewport, redraws: redraws}
}

// singleLaneOptions 返回只有一条轨道（视口高度 20 时）的选项
func singleLaneOptions(durationSec float64) config.OverlayOptions {
	opts := config.DefaultOverlayOptions()
	opts.Duration = durationSec
	return opts
}

// xAt 用与帧回调相同的公式计算某条弹幕的位置
func xAt(t *testing.T, ov *testOverlay, index int) float64 {
	t.Helper()
	canvas := &recordingCanvas{}
	ov.StepFrame(canvas)
	fills := canvas.fills()
	if index >= len(fills) {
		t.Fatalf("item %d not drawn (only %d fills)", index, len(fills))
	}
	return fills[index].x
}
