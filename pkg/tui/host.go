// Package tui 提供弹幕覆盖层的终端宿主（tcell）
//
// 终端以字符格为单位：一格宽为字号的一半，一格高为一条轨道的行高。
// 宿主把字符格换算成像素交给覆盖层，绘制时再换算回字符格。
// 最后一行留给状态栏，因此覆盖层的轨道数正好等于 ceil((行数-1) * 显示区域比例)。
package tui

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/danmaku"
	"github.com/gonewx/danmaku/pkg/game"
)

// 帧间隔（约 60 FPS）
const frameInterval = 16 * time.Millisecond

// DurationStep +/- 键调整滚动时长的步长（秒）
const DurationStep = 1.0

// Config 终端宿主配置
type Config struct {
	Options config.OverlayOptions
	Feed    *game.Feed // 为 nil 时不播放演示脚本
	Clock   danmaku.Clock
}

// Host 终端宿主
type Host struct {
	screen  tcell.Screen
	overlay *danmaku.Overlay
	clock   danmaku.Clock
	feed    *game.FeedPlayer

	mu         sync.Mutex
	cols, rows int
	opts       config.OverlayOptions

	dirty atomic.Bool
}

// NewHost 在已初始化的 screen 上创建宿主
func NewHost(screen tcell.Screen, cfg Config) (*Host, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = danmaku.NewMonotonicClock()
	}

	h := &Host{
		screen: screen,
		clock:  clock,
		opts:   cfg.Options.Clamp(),
	}
	h.cols, h.rows = screen.Size()

	ov, err := danmaku.NewOverlay(danmaku.Capabilities{
		Measurer: danmaku.MeasureFunc(h.measure),
		Viewport: danmaku.ViewportFunc(h.viewportSize),
		Clock:    clock,
		Redraw:   danmaku.RedrawFunc(func() { h.dirty.Store(true) }),
	})
	if err != nil {
		return nil, err
	}
	ov.UpdateOption(h.opts)
	h.overlay = ov

	if cfg.Feed != nil {
		h.feed = game.NewFeedPlayer(cfg.Feed, clock.NowMs())
	}
	return h, nil
}

// Overlay 返回覆盖层
func (h *Host) Overlay() *danmaku.Overlay {
	return h.overlay
}

// cellSize 返回当前选项下一个字符格的像素尺寸
func (h *Host) cellSize() (float64, float64) {
	fontPx := h.opts.FontPx(1)
	return fontPx / 2, h.opts.RowHeight(fontPx)
}

func (h *Host) measure(text string, sizePx float64) float64 {
	return float64(runewidth.StringWidth(text)) * sizePx / 2
}

// viewportSize 不含最后一行的状态栏
func (h *Host) viewportSize() (float64, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cw, ch := h.cellSize()
	return float64(h.cols) * cw, float64(max(h.rows-1, 0)) * ch
}

// ApplyOptions 更新显示选项
//
// 快捷键、选项文件热加载和桥接的 updateOption 都经由这里，
// 字符格换算始终与覆盖层使用同一份选项。
func (h *Host) ApplyOptions(opts config.OverlayOptions) {
	h.mu.Lock()
	h.opts = opts.Clamp()
	opts = h.opts
	h.mu.Unlock()

	h.overlay.UpdateOption(opts)
}

// HandleEvent 处理一个终端事件，返回 false 表示退出
func (h *Host) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			h.togglePause()
		case 'c':
			h.overlay.ClearDanmaku()
		case 'h':
			opts := h.options()
			opts.HideScroll = !opts.HideScroll
			h.ApplyOptions(opts)
		case '+', '=':
			h.adjustDuration(-DurationStep)
		case '-':
			h.adjustDuration(DurationStep)
		}

	case *tcell.EventResize:
		h.mu.Lock()
		h.cols, h.rows = ev.Size()
		h.mu.Unlock()
		h.screen.Sync()
		h.dirty.Store(true)
	}
	return true
}

func (h *Host) options() config.OverlayOptions {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts
}

// adjustDuration "+" 加快（时长变短），"-" 减慢
func (h *Host) adjustDuration(delta float64) {
	opts := h.options()
	opts.Duration += delta
	h.ApplyOptions(opts)
}

func (h *Host) togglePause() {
	if h.overlay.IsPaused() {
		h.overlay.Resume()
	} else {
		h.overlay.Pause()
	}
	h.syncFeedPause()
}

// syncFeedPause 让演示脚本跟随覆盖层的暂停状态，返回是否暂停
func (h *Host) syncFeedPause() bool {
	paused := h.overlay.IsPaused()
	if h.feed != nil {
		h.feed.SyncPause(h.clock.NowMs(), paused)
	}
	return paused
}

// Tick 推进演示脚本，有重绘请求时绘制一帧
//
// 暂停状态每个 tick 从覆盖层读取，桥接调用引起的暂停和恢复也会同步到脚本。
func (h *Host) Tick() {
	if paused := h.syncFeedPause(); h.feed != nil && !paused {
		if due := h.feed.Due(h.clock.NowMs()); len(due) > 0 {
			h.overlay.AddDanmakuBatch(due)
		}
	}

	if !h.dirty.Swap(false) {
		return
	}
	h.mu.Lock()
	cw, ch := h.cellSize()
	cols := h.cols
	h.mu.Unlock()

	h.screen.Clear()
	h.overlay.StepFrame(&cellCanvas{screen: h.screen, cellW: cw, cellH: ch, cols: cols})
	h.drawStatus()
	h.screen.Show()
}

// drawStatus 在最后一行显示状态
func (h *Host) drawStatus() {
	stats := h.overlay.Stats()
	state := "playing"
	if stats.Paused {
		state = "paused"
	}
	line := fmt.Sprintf("[%s] live=%d lanes=%d dropped=%d  space:pause c:clear h:hide +/-:speed q:quit",
		state, stats.Live, stats.Lanes, stats.Dropped)

	cols, rows := h.screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	drawString(h.screen, 0, rows-1, line, style, cols)
}

// Run 运行事件循环，直到用户退出或 ctx 取消
func (h *Host) Run(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	h.dirty.Store(true)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !h.HandleEvent(ev) {
				log.Printf("[TUI] Quit requested")
				return
			}
		case <-ticker.C:
			h.Tick()
		}
	}
}

// cellCanvas 把像素坐标换算为字符格
type cellCanvas struct {
	screen       tcell.Screen
	cellW, cellH float64
	cols         int
}

// StrokeText 终端无法描边
func (c *cellCanvas) StrokeText(string, float64, float64, float64, float64, color.NRGBA) {}

// FillText y 为基线，第 lane 条轨道的基线在 (lane+1) 行高处
func (c *cellCanvas) FillText(text string, x, y, _ float64, clr color.NRGBA) {
	if clr.A == 0 {
		return
	}
	col := int(math.Floor(x / c.cellW))
	row := int(math.Round(y/c.cellH)) - 1

	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(clr.R), int32(clr.G), int32(clr.B)))
	if clr.A < 128 {
		style = style.Dim(true)
	}
	drawString(c.screen, col, row, text, style, c.cols)
}

// drawString 从 col 开始绘制文本，裁剪到 [0, maxCol)
func drawString(screen tcell.Screen, col, row int, s string, style tcell.Style, maxCol int) {
	if row < 0 {
		return
	}
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if col >= maxCol {
			return
		}
		if col >= 0 && w > 0 {
			screen.SetContent(col, row, r, nil, style)
		}
		col += w
	}
}
