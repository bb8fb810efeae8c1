package systems

import (
	"math"

	"github.com/gonewx/danmaku/pkg/components"
	"github.com/gonewx/danmaku/pkg/config"
)

// LanePolicy 轨道接纳策略参数
type LanePolicy struct {
	// MinGapPx 最小间距下限，实际间距取 max(字号像素, MinGapPx)
	MinGapPx float64

	// FallbackSlackMs 没有轨道立即可用时，最佳候选轨道若能在此时间内变为可用则仍然接纳
	// 这会造成短暂的视觉重叠，但比直接丢弃更平滑；设为 0 即严格模式
	FallbackSlackMs float64
}

// DefaultLanePolicy 返回默认策略
func DefaultLanePolicy() LanePolicy {
	return LanePolicy{
		MinGapPx:        config.MinGapPx,
		FallbackSlackMs: config.FallbackSlackMs,
	}
}

// AdmitRequest 一次接纳请求的输入
type AdmitRequest struct {
	NowMs         int64   // 当前时刻
	TextWidth     float64 // 新弹幕像素宽度
	ViewportWidth float64 // 视口宽度
	DurationMs    float64 // 横穿时长
	FontPx        float64 // 当前字号像素，用于计算最小间距
}

// Admission 接纳结果
type Admission struct {
	Lane     int     // 轨道索引
	Speed    float64 // 新弹幕速度（像素/毫秒）
	Fallback bool    // 是否通过候选轨道放宽接纳
}

// LaneAllocator 轨道调度器
//
// 为每条新弹幕即时选择轨道（或丢弃），保证同一轨道内后来者不会追上前者。
// 每条轨道只保留最近一次接纳的弹幕的运动学快照（尾部），接纳后即覆盖。
//
// 调度器不做任何同步，由调用方（Overlay）在同一把锁内调用。
type LaneAllocator struct {
	policy  LanePolicy
	tails   []*components.LaneTail // nil 表示该轨道尚无尾部记录
	dropped int64
}

// NewLaneAllocator 创建轨道调度器
func NewLaneAllocator(policy LanePolicy) *LaneAllocator {
	return &LaneAllocator{
		policy: policy,
		tails:  make([]*components.LaneTail, 0),
	}
}

// EnsureLanes 调整轨道数量
//
// 保留仍存在的轨道的尾部记录，新增轨道为空，多余轨道直接丢弃。
// 已在屏幕上的弹幕不受影响。
func (la *LaneAllocator) EnsureLanes(count int) {
	if count < 1 {
		count = 1
	}
	for len(la.tails) < count {
		la.tails = append(la.tails, nil)
	}
	for i := count; i < len(la.tails); i++ {
		la.tails[i] = nil
	}
	la.tails = la.tails[:count]
}

// LaneCount 返回当前轨道数
func (la *LaneAllocator) LaneCount() int {
	return len(la.tails)
}

// Tail 返回指定轨道的尾部快照
func (la *LaneAllocator) Tail(lane int) (components.LaneTail, bool) {
	if lane < 0 || lane >= len(la.tails) || la.tails[lane] == nil {
		return components.LaneTail{}, false
	}
	return *la.tails[lane], true
}

// Dropped 返回因轨道繁忙而丢弃的弹幕数
func (la *LaneAllocator) Dropped() int64 {
	return la.dropped
}

// Policy 返回当前策略
func (la *LaneAllocator) Policy() LanePolicy {
	return la.policy
}

// Admit 为新弹幕选择轨道
//
// 按轨道索引顺序扫描：
//  1. 无尾部记录的轨道立即接纳
//  2. 尾部右边缘距屏幕右边界的间距不足 minGap：记为候选，继续扫描
//  3. 新弹幕比尾部快：预测尾部离开屏幕时两者的间距，不小于 minGap 则接纳，否则记为候选
//  4. 其余情况（间距足够且不更快）立即接纳
//
// 扫描结束仍未接纳时，取间距最大的候选轨道；若它在 FallbackSlackMs 内即可变为可用则接纳，
// 否则丢弃并累加丢弃计数。
//
// 接纳后该轨道的尾部被新弹幕覆盖。
func (la *LaneAllocator) Admit(req AdmitRequest) (Admission, bool) {
	if len(la.tails) == 0 {
		la.EnsureLanes(1)
	}

	vw := req.ViewportWidth
	speed := ScrollSpeed(vw, req.TextWidth, req.DurationMs)
	minGap := math.Max(req.FontPx, la.policy.MinGapPx)

	best := -1
	bestGap := 0.0
	bestWaitMs := 0.0
	consider := func(lane int, gap, waitMs float64) {
		if best < 0 || gap > bestGap {
			best, bestGap, bestWaitMs = lane, gap, waitMs
		}
	}

	for i, tail := range la.tails {
		if tail == nil {
			return la.commit(i, req, speed, false), true
		}

		elapsed := math.Max(float64(req.NowMs-tail.BornAtMs), 0)
		tailSpeed := math.Max(tail.Speed, config.SpeedEpsilon)
		tailX := vw - elapsed*tailSpeed
		gap := vw - (tailX + tail.TextWidth)

		if gap < minGap {
			consider(i, gap, (minGap-gap)/tailSpeed)
			continue
		}

		if speed > tailSpeed {
			remaining := ExitAfterMs(vw, tail.TextWidth, tailSpeed) - elapsed
			if remaining <= 0 {
				return la.commit(i, req, speed, false), true
			}
			newX := vw - remaining*speed
			tailRight := vw - (elapsed+remaining)*tailSpeed + tail.TextWidth
			sep := newX - tailRight
			if sep >= minGap {
				return la.commit(i, req, speed, false), true
			}
			consider(i, sep, (minGap-sep)/speed)
			continue
		}

		return la.commit(i, req, speed, false), true
	}

	if best >= 0 && bestWaitMs <= la.policy.FallbackSlackMs {
		return la.commit(best, req, speed, true), true
	}

	la.dropped++
	return Admission{Lane: -1}, false
}

func (la *LaneAllocator) commit(lane int, req AdmitRequest, speed float64, fallback bool) Admission {
	la.tails[lane] = &components.LaneTail{
		TextWidth: req.TextWidth,
		BornAtMs:  req.NowMs,
		Speed:     speed,
	}
	return Admission{Lane: lane, Speed: speed, Fallback: fallback}
}

// ShiftTails 将所有尾部的出生时刻整体后移（暂停恢复时调用）
func (la *LaneAllocator) ShiftTails(deltaMs int64) {
	for _, tail := range la.tails {
		if tail != nil {
			tail.BornAtMs += deltaMs
		}
	}
}

// Reset 清空所有尾部记录和丢弃计数，轨道数保持不变
func (la *LaneAllocator) Reset() {
	for i := range la.tails {
		la.tails[i] = nil
	}
	la.dropped = 0
}
