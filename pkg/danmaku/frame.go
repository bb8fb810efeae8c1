package danmaku

import (
	"github.com/gonewx/danmaku/pkg/systems"
)

// StepFrame 帧回调：计算每条弹幕当前位置，移除已离屏的弹幕并绘制其余弹幕
//
// 由宿主的动画回调调用（canvas 可为 nil，此时只推进和清理）。
// 返回 true 表示仍有弹幕且处于播放状态，此时已经请求了下一帧重绘；
// 屏幕清空或暂停后返回 false，帧循环自然停止。
//
// 暂停期间按暂停时刻计算位置，重绘得到的是静止画面。
func (o *Overlay) StepFrame(canvas Canvas) bool {
	o.mu.Lock()
	alive := o.stepLocked(canvas)
	animating := alive && o.running
	o.mu.Unlock()

	if animating {
		o.requestRedraw()
	}
	return animating
}

func (o *Overlay) stepLocked(canvas Canvas) bool {
	vw, _ := o.viewport.Size()
	if vw <= 0 {
		return false
	}

	now := o.clock.NowMs()
	if !o.running && o.hasPauseStart {
		now = o.pauseStartedAt
	}

	durationMs := o.opts.DurationMs()
	fontPx := o.opts.FontPx(o.density)
	draw := canvas != nil && !o.opts.HideScroll

	kept := o.items[:0]
	for _, item := range o.items {
		speed := systems.ScrollSpeed(vw, item.TextWidth, durationMs)
		x := systems.ScrollX(vw, speed, now-item.BornAtMs)
		if systems.HasExited(x, item.TextWidth) {
			continue
		}
		kept = append(kept, item)

		if !draw {
			continue
		}
		fill := applyOpacity(item.Color, o.opts.Opacity)
		if o.opts.StrokeWidth > 0 {
			canvas.StrokeText(item.Text, x, item.Y, fontPx, o.opts.StrokeWidth, strokeColor(fill.A, o.opts.Opacity))
		}
		canvas.FillText(item.Text, x, item.Y, fontPx, fill)
	}
	for i := len(kept); i < len(o.items); i++ {
		o.items[i] = nil
	}
	o.items = kept

	return len(o.items) > 0
}
