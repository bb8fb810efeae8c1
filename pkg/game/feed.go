package game

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/gonewx/danmaku/pkg/danmaku"
	"gopkg.in/yaml.v3"
)

// 演示弹幕脚本
// 描述一组按时间偏移提交的弹幕，用于在没有真实弹幕源时驱动覆盖层

// DefaultFeedColor 未指定颜色时使用白色
const DefaultFeedColor uint32 = 0xFFFFFFFF

// DefaultLoopGapMs 循环播放时两轮之间的默认间隔
const DefaultLoopGapMs = 1000

// FeedEntry 脚本中的一条弹幕
type FeedEntry struct {
	AtMs  int64  `yaml:"atMs"`  // 相对脚本开始的毫秒数
	Text  string `yaml:"text"`  // 文本
	Color string `yaml:"color"` // 颜色，见 danmaku.ParseColor，可省略
}

// Feed 弹幕脚本
type Feed struct {
	Loop      bool        `yaml:"loop"`      // 播完后是否从头循环
	LoopGapMs int64       `yaml:"loopGapMs"` // 两轮之间的间隔，<= 0 时使用 DefaultLoopGapMs
	Entries   []FeedEntry `yaml:"entries"`

	scheduled []scheduledDanmaku
}

type scheduledDanmaku struct {
	atMs int64
	item danmaku.Danmaku
}

// LoadFeed 从 YAML 文件加载弹幕脚本
func LoadFeed(filePath string) (*Feed, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}
	return ParseFeed(data)
}

// ParseFeed 解析 YAML 格式的弹幕脚本
//
// 条目按 atMs 稳定排序，颜色在解析时校验。
// 空文本条目保留（覆盖层会忽略它们）。
//
// 返回：
//   - *Feed: 解析后的脚本
//   - error: YAML 语法错误、atMs 为负或颜色非法时返回错误
func ParseFeed(data []byte) (*Feed, error) {
	var feed Feed
	if err := yaml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed YAML: %w", err)
	}

	feed.scheduled = make([]scheduledDanmaku, 0, len(feed.Entries))
	for i, entry := range feed.Entries {
		if entry.AtMs < 0 {
			return nil, fmt.Errorf("feed entry %d: atMs must be >= 0, got %d", i, entry.AtMs)
		}
		argb := DefaultFeedColor
		if entry.Color != "" {
			c, err := danmaku.ParseColor(entry.Color)
			if err != nil {
				return nil, fmt.Errorf("feed entry %d: %w", i, err)
			}
			argb = c
		}
		feed.scheduled = append(feed.scheduled, scheduledDanmaku{
			atMs: entry.AtMs,
			item: danmaku.Danmaku{Text: entry.Text, Color: argb},
		})
	}
	sort.SliceStable(feed.scheduled, func(i, j int) bool {
		return feed.scheduled[i].atMs < feed.scheduled[j].atMs
	})

	log.Printf("[Feed] Parsed %d entries (loop=%v)", len(feed.scheduled), feed.Loop)
	return &feed, nil
}

// Len 返回条目数
func (f *Feed) Len() int {
	return len(f.scheduled)
}

// CycleMs 返回一轮的长度（最后一条的 atMs 加循环间隔），至少 1ms
func (f *Feed) CycleMs() int64 {
	gap := f.LoopGapMs
	if gap <= 0 {
		gap = DefaultLoopGapMs
	}
	var last int64
	if n := len(f.scheduled); n > 0 {
		last = f.scheduled[n-1].atMs
	}
	return max(last+gap, 1)
}

// FeedPlayer 按时钟播放弹幕脚本
//
// 非并发安全，由宿主的更新循环单独持有
type FeedPlayer struct {
	feed       *Feed
	cycleStart int64
	next       int
	done       bool

	paused   bool
	pausedAt int64
}

// NewFeedPlayer 创建播放器
//
// 参数：
//   - feed: 弹幕脚本
//   - startMs: 脚本零点对应的时钟时刻
func NewFeedPlayer(feed *Feed, startMs int64) *FeedPlayer {
	return &FeedPlayer{feed: feed, cycleStart: startMs}
}

// Due 返回截至 nowMs 应当提交的弹幕（按脚本顺序）
//
// 循环播放时，若 nowMs 跨越多轮，只补发当前这一轮中已到期的条目
func (p *FeedPlayer) Due(nowMs int64) []danmaku.Danmaku {
	if p.done || p.feed.Len() == 0 {
		p.done = true
		return nil
	}

	var out []danmaku.Danmaku
	for {
		if p.next >= p.feed.Len() {
			if !p.feed.Loop {
				p.done = true
				return out
			}
			cycle := p.feed.CycleMs()
			p.cycleStart += cycle
			if behind := nowMs - p.cycleStart; behind >= cycle {
				p.cycleStart += (behind / cycle) * cycle
			}
			p.next = 0
		}

		entry := p.feed.scheduled[p.next]
		if p.cycleStart+entry.atMs > nowMs {
			return out
		}
		out = append(out, entry.item)
		p.next++
	}
}

// Shift 将脚本时间线整体后移（宿主暂停后恢复时调用）
func (p *FeedPlayer) Shift(ms int64) {
	if ms > 0 {
		p.cycleStart += ms
	}
}

// SyncPause 按覆盖层的暂停状态维护脚本时间线
//
// 宿主每个 tick 调用一次，暂停无论来自快捷键还是桥接调用都会被观察到：
// 第一次观察到暂停时记录时刻，第一次观察到恢复时将时间线后移暂停时长。
//
// 参数：
//   - nowMs: 当前时刻
//   - paused: 覆盖层当前是否暂停
func (p *FeedPlayer) SyncPause(nowMs int64, paused bool) {
	switch {
	case paused && !p.paused:
		p.paused = true
		p.pausedAt = nowMs
	case !paused && p.paused:
		p.paused = false
		p.Shift(nowMs - p.pausedAt)
	}
}

// Done 返回非循环脚本是否已播放完毕
func (p *FeedPlayer) Done() bool {
	return p.done
}

// Reset 从 startMs 重新开始播放
func (p *FeedPlayer) Reset(startMs int64) {
	p.cycleStart = startMs
	p.next = 0
	p.done = false
	p.paused = false
}
