package danmaku

import (
	"image/color"
	"time"
)

// TextMeasurer 文本测量能力：返回字符串在指定像素字号下的宽度
type TextMeasurer interface {
	MeasureText(text string, sizePx float64) float64
}

// MeasureFunc 将普通函数适配为 TextMeasurer
type MeasureFunc func(text string, sizePx float64) float64

// MeasureText 实现 TextMeasurer
func (f MeasureFunc) MeasureText(text string, sizePx float64) float64 {
	return f(text, sizePx)
}

// Viewport 视口尺寸查询（像素）
type Viewport interface {
	Size() (width, height float64)
}

// ViewportFunc 将普通函数适配为 Viewport
type ViewportFunc func() (width, height float64)

// Size 实现 Viewport
func (f ViewportFunc) Size() (float64, float64) {
	return f()
}

// Canvas 绘制能力
//
// 坐标 (x, y) 中 y 为文字基线。每条弹幕先调用 StrokeText（描边宽度 > 0 时）再调用 FillText
type Canvas interface {
	StrokeText(text string, x, y, sizePx, strokeWidth float64, clr color.NRGBA)
	FillText(text string, x, y, sizePx float64, clr color.NRGBA)
}

// Clock 单调毫秒时钟
type Clock interface {
	NowMs() int64
}

// ClockFunc 将普通函数适配为 Clock
type ClockFunc func() int64

// NowMs 实现 Clock
func (f ClockFunc) NowMs() int64 {
	return f()
}

// MonotonicClock 基于 time.Since 的单调时钟，零点为创建时刻
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock 创建单调时钟
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// NowMs 返回自创建以来经过的毫秒数
func (c *MonotonicClock) NowMs() int64 {
	return time.Since(c.start).Milliseconds()
}

// RedrawRequester "下一帧重绘"请求
//
// 覆盖层不自己驱动帧循环，只在需要时请求宿主在下一帧调用 StepFrame
type RedrawRequester interface {
	RequestRedraw()
}

// RedrawFunc 将普通函数适配为 RedrawRequester
type RedrawFunc func()

// RequestRedraw 实现 RedrawRequester
func (f RedrawFunc) RequestRedraw() {
	f()
}
