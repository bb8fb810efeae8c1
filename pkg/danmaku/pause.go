package danmaku

// Pause 暂停：记录暂停时刻，停止请求重绘，暂停期间不再接纳新弹幕
//
// 已暂停时再次调用保持第一次的暂停时刻
func (o *Overlay) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running || !o.hasPauseStart {
		o.pauseStartedAt = o.clock.NowMs()
		o.hasPauseStart = true
	}
	o.running = false
}

// Resume 恢复播放
//
// 将所有弹幕和轨道尾部的出生时刻在同一把锁内整体后移暂停时长，
// 使恢复后的位置与暂停前连续。未暂停时调用不会改变任何时间戳。
func (o *Overlay) Resume() {
	o.mu.Lock()
	if o.hasPauseStart {
		if pausedFor := o.clock.NowMs() - o.pauseStartedAt; pausedFor > 0 {
			for _, item := range o.items {
				item.BornAtMs += pausedFor
			}
			o.lanes.ShiftTails(pausedFor)
		}
		o.hasPauseStart = false
		o.pauseStartedAt = 0
	}
	o.running = true
	o.mu.Unlock()

	o.requestRedraw()
}

// IsPaused 返回是否处于暂停状态
func (o *Overlay) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.running
}
