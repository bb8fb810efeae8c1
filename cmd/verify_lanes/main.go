// verify_lanes 无界面的轨道调度压力验证
//
// 以固定速率向覆盖层提交弹幕，按 60 FPS 推进模拟时钟，统计接纳、丢弃，
// 并检查同一轨道内相邻弹幕是否发生重叠。
//
// 用法：
//
//	go run ./cmd/verify_lanes -rate 40 -seconds 60 -duration 3
package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"sort"

	"github.com/mattn/go-runewidth"

	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/danmaku"
	"github.com/gonewx/danmaku/pkg/systems"
)

var (
	// 命令行参数
	verbose  = flag.Bool("verbose", false, "显示详细调试信息")
	width    = flag.Float64("width", 1920, "视口宽度（像素）")
	height   = flag.Float64("height", 1080, "视口高度（像素）")
	duration = flag.Float64("duration", config.DefaultDuration, "横穿时长（秒）")
	area     = flag.Float64("area", config.DefaultArea, "显示区域比例")
	rate     = flag.Float64("rate", 20, "每秒提交的弹幕数")
	seconds  = flag.Int("seconds", 60, "模拟时长（秒）")
	slack    = flag.Float64("slack", config.FallbackSlackMs, "接近空闲轨道的接纳余量（毫秒），0 为严格丢弃")
	seed     = flag.Int64("seed", 1, "随机种子")
)

const frameMs = 16

var samples = []string{
	"前方高能", "23333", "awsl", "名场面打卡", "这个配乐太好听了吧",
	"kksk", "哈哈哈哈哈哈哈哈哈哈", "空降成功", "up 主更新速度好评", "泪目",
}

// positionCanvas 记录每帧每条轨道上的弹幕区间
type positionCanvas struct {
	rowHeight float64
	spans     map[int][][2]float64
}

func (c *positionCanvas) StrokeText(string, float64, float64, float64, float64, color.NRGBA) {}

func (c *positionCanvas) FillText(text string, x, y, sizePx float64, _ color.NRGBA) {
	lane := int(math.Round(y/c.rowHeight)) - 1
	w := measure(text, sizePx)
	c.spans[lane] = append(c.spans[lane], [2]float64{x, x + w})
}

// overlaps 统计相邻区间的重叠
func (c *positionCanvas) overlaps() int {
	n := 0
	for _, spans := range c.spans {
		sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
		for i := 1; i < len(spans); i++ {
			if spans[i][0] < spans[i-1][1] {
				n++
			}
		}
	}
	return n
}

// measure 按字符宽度近似：半角字符宽为字号的一半
func measure(text string, sizePx float64) float64 {
	return float64(runewidth.StringWidth(text)) * sizePx / 2
}

func main() {
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	var now int64
	policy := systems.DefaultLanePolicy()
	policy.FallbackSlackMs = *slack

	ov, err := danmaku.NewOverlay(danmaku.Capabilities{
		Measurer: danmaku.MeasureFunc(measure),
		Viewport: danmaku.ViewportFunc(func() (float64, float64) { return *width, *height }),
		Clock:    danmaku.ClockFunc(func() int64 { return now }),
		Policy:   &policy,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建覆盖层失败: %v\n", err)
		os.Exit(1)
	}

	opts := config.DefaultOverlayOptions()
	opts.Duration = *duration
	opts.Area = *area
	ov.UpdateOption(opts)
	opts = ov.Options()
	rowHeight := opts.RowHeight(opts.FontPx(1))

	rng := rand.New(rand.NewSource(*seed))
	intervalMs := 1000 / math.Max(*rate, 0.001)
	nextArrival := 0.0

	var submitted, overlapFrames, overlapPairs, maxLive int
	endMs := int64(*seconds) * 1000
	for now = 0; now <= endMs; now += frameMs {
		for float64(now) >= nextArrival {
			ov.AddDanmaku(samples[rng.Intn(len(samples))], 0xFFFFFFFF)
			submitted++
			nextArrival += intervalMs
		}

		canvas := &positionCanvas{rowHeight: rowHeight, spans: make(map[int][][2]float64)}
		ov.StepFrame(canvas)
		if n := canvas.overlaps(); n > 0 {
			overlapFrames++
			overlapPairs += n
			log.Printf("[verify_lanes] t=%dms overlapping pairs=%d", now, n)
		}
		maxLive = max(maxLive, ov.Stats().Live)
	}

	stats := ov.Stats()
	fmt.Printf("viewport:        %.0fx%.0f, lanes=%d, duration=%.1fs, slack=%.0fms\n",
		*width, *height, stats.Lanes, opts.Duration, policy.FallbackSlackMs)
	fmt.Printf("submitted:       %d (%.1f/s for %ds)\n", submitted, *rate, *seconds)
	fmt.Printf("dropped:         %d (%.1f%%)\n", stats.Dropped, 100*float64(stats.Dropped)/math.Max(float64(submitted), 1))
	fmt.Printf("max on screen:   %d\n", maxLive)
	fmt.Printf("overlap frames:  %d (pairs %d)\n", overlapFrames, overlapPairs)
}
