// Package danmaku 实现滚动弹幕覆盖层的核心调度
//
// 覆盖层接收任意时刻到达的短文本，将其分配到若干水平轨道中从右向左滚动，
// 并在宿主每帧回调时计算位置、绘制、移除已离屏的弹幕。
//
// 文本测量、视口尺寸、绘制、时钟和重绘请求均由宿主通过 Capabilities 注入，
// 本包不依赖任何图形后端，也不启动任何协程。
package danmaku

import (
	"errors"
	"sync"

	"github.com/gonewx/danmaku/pkg/components"
	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/systems"
)

// Capabilities 宿主注入的外部能力
type Capabilities struct {
	Measurer TextMeasurer    // 必需
	Viewport Viewport        // 必需
	Clock    Clock           // 为 nil 时使用 MonotonicClock
	Redraw   RedrawRequester // 可为 nil（宿主自行每帧调用 StepFrame）

	// Density 每 sp 对应的像素数，<= 0 时按 1 处理
	Density float64

	// Policy 轨道接纳策略，为 nil 时使用 systems.DefaultLanePolicy()
	Policy *systems.LanePolicy
}

// Danmaku 一条待提交的弹幕
type Danmaku struct {
	Text  string `yaml:"text" json:"text"`
	Color uint32 `yaml:"color" json:"color"` // ARGB
}

// Stats 覆盖层状态快照
type Stats struct {
	Live    int   // 屏幕上的弹幕数
	Lanes   int   // 当前轨道数
	Dropped int64 // 因轨道繁忙被丢弃的弹幕数
	Paused  bool
}

// Overlay 弹幕覆盖层
//
// 所有导出方法都可以从任意协程调用。弹幕列表、轨道尾部、丢弃计数、暂停状态和选项
// 由同一把互斥锁保护，帧回调不会看到一半的新增或一半的暂停平移。
type Overlay struct {
	mu sync.Mutex

	measurer TextMeasurer
	viewport Viewport
	clock    Clock
	redraw   RedrawRequester
	density  float64

	opts  config.OverlayOptions
	lanes *systems.LaneAllocator
	items []*components.DanmakuItem

	running        bool
	pauseStartedAt int64
	hasPauseStart  bool
}

// NewOverlay 创建覆盖层，初始为运行状态、默认选项
//
// 返回：
//   - *Overlay: 覆盖层实例
//   - error: 缺少必需能力时返回错误
func NewOverlay(caps Capabilities) (*Overlay, error) {
	if caps.Measurer == nil {
		return nil, errors.New("danmaku: text measurer is required")
	}
	if caps.Viewport == nil {
		return nil, errors.New("danmaku: viewport is required")
	}

	clock := caps.Clock
	if clock == nil {
		clock = NewMonotonicClock()
	}
	policy := systems.DefaultLanePolicy()
	if caps.Policy != nil {
		policy = *caps.Policy
	}
	density := caps.Density
	if density <= 0 {
		density = 1
	}

	return &Overlay{
		measurer: caps.Measurer,
		viewport: caps.Viewport,
		clock:    clock,
		redraw:   caps.Redraw,
		density:  density,
		opts:     config.DefaultOverlayOptions(),
		lanes:    systems.NewLaneAllocator(policy),
		items:    make([]*components.DanmakuItem, 0, 64),
		running:  true,
	}, nil
}

// AddDanmaku 提交一条弹幕
//
// 以下情况直接忽略：暂停中、隐藏滚动弹幕、文本为空、视口尺寸无效。
// 没有轨道可用时只累加丢弃计数，不返回错误。
func (o *Overlay) AddDanmaku(text string, argb uint32) {
	o.mu.Lock()
	admitted := o.addLocked(text, argb)
	o.mu.Unlock()

	if admitted {
		o.requestRedraw()
	}
}

// AddDanmakuBatch 按顺序提交多条弹幕，只请求一次重绘
func (o *Overlay) AddDanmakuBatch(items []Danmaku) {
	admitted := false

	o.mu.Lock()
	for _, item := range items {
		if o.addLocked(item.Text, item.Color) {
			admitted = true
		}
	}
	o.mu.Unlock()

	if admitted {
		o.requestRedraw()
	}
}

func (o *Overlay) addLocked(text string, argb uint32) bool {
	if !o.running || o.opts.HideScroll || text == "" {
		return false
	}
	vw, vh := o.viewport.Size()
	if vw <= 0 || vh <= 0 {
		return false
	}

	fontPx := o.opts.FontPx(o.density)
	rowHeight := o.opts.RowHeight(fontPx)
	o.lanes.EnsureLanes(o.opts.LaneCount(vh, rowHeight))

	now := o.clock.NowMs()
	width := o.measurer.MeasureText(text, fontPx)

	adm, ok := o.lanes.Admit(systems.AdmitRequest{
		NowMs:         now,
		TextWidth:     width,
		ViewportWidth: vw,
		DurationMs:    o.opts.DurationMs(),
		FontPx:        fontPx,
	})
	if !ok {
		return false
	}

	o.items = append(o.items, &components.DanmakuItem{
		Text:      text,
		Color:     ColorFromARGB(argb),
		TextWidth: width,
		LaneIndex: adm.Lane,
		Y:         float64(adm.Lane+1) * rowHeight,
		BornAtMs:  now,
	})
	return true
}

// UpdateOption 更新显示选项，数值会被限制到合法范围
//
// 已在屏幕上的弹幕保留接纳时的宽度和轨道
func (o *Overlay) UpdateOption(opts config.OverlayOptions) {
	o.mu.Lock()
	o.opts = opts.Clamp()
	o.mu.Unlock()

	o.requestRedraw()
}

// Options 返回当前选项
func (o *Overlay) Options() config.OverlayOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opts
}

// ClearDanmaku 清空屏幕上的弹幕、轨道尾部、丢弃计数和暂停时间戳，选项保持不变
func (o *Overlay) ClearDanmaku() {
	o.mu.Lock()
	for i := range o.items {
		o.items[i] = nil
	}
	o.items = o.items[:0]
	o.lanes.Reset()
	o.hasPauseStart = false
	o.pauseStartedAt = 0
	o.mu.Unlock()

	o.requestRedraw()
}

// Dispose 宿主视图销毁时调用
func (o *Overlay) Dispose() {
	o.ClearDanmaku()
}

// Stats 返回状态快照
func (o *Overlay) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Stats{
		Live:    len(o.items),
		Lanes:   o.lanes.LaneCount(),
		Dropped: o.lanes.Dropped(),
		Paused:  !o.running,
	}
}

// Items 返回屏幕上弹幕的副本（按接纳顺序）
func (o *Overlay) Items() []components.DanmakuItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]components.DanmakuItem, len(o.items))
	for i, item := range o.items {
		out[i] = *item
	}
	return out
}

// LaneTail 返回指定轨道的尾部快照
func (o *Overlay) LaneTail(lane int) (components.LaneTail, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lanes.Tail(lane)
}

func (o *Overlay) requestRedraw() {
	if o.redraw != nil {
		o.redraw.RequestRedraw()
	}
}
