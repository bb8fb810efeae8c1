package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// 弹幕覆盖层配置
// 本文件定义覆盖层的可调参数（透明度、字号、显示区域、滚动时长等）及其取值范围

// 默认值（与宿主插件 updateOption 的缺省参数一致）
const (
	DefaultOpacity     = 0.6
	DefaultFontSize    = 17.0
	DefaultArea        = 0.25
	DefaultDuration    = 10.0
	DefaultStrokeWidth = 0.8
	DefaultLineHeight  = 1.6
)

// 取值范围
const (
	MinFontSize    = 8.0
	MaxFontSize    = 64.0
	MinArea        = 0.05
	MaxArea        = 1.0
	MinDuration    = 3.0 // 秒
	MaxStrokeWidth = 2.5
	MinLineHeight  = 1.0
	MaxLineHeight  = 2.2
)

// 轨道调度常量
const (
	// MinGapPx 同一轨道相邻两条弹幕之间的最小间距（像素），实际取 max(字号像素, MinGapPx)
	MinGapPx = 42.0

	// SpeedEpsilon 速度下限（像素/毫秒），避免计算剩余时间时除零
	SpeedEpsilon = 0.001

	// MinDurationMs 滚动时长下限（毫秒）
	MinDurationMs = 1000.0

	// FallbackSlackMs 所有轨道都未空出时，允许"接近空闲"的轨道提前接纳的时间余量
	// 设为 0 则严格丢弃
	FallbackSlackMs = 80
)

// OverlayOptions 覆盖层显示选项
//
// 所有字段在写入覆盖层前都会经过 Clamp 限制到合法范围
type OverlayOptions struct {
	Opacity     float64 `yaml:"opacity"`     // 不透明度 0.0 ~ 1.0
	FontSize    float64 `yaml:"fontSize"`    // 字号（sp）8 ~ 64
	Area        float64 `yaml:"area"`        // 可用于轨道的屏幕高度比例 0.05 ~ 1.0
	Duration    float64 `yaml:"duration"`    // 横穿屏幕所需秒数，>= 3
	HideScroll  bool    `yaml:"hideScroll"`  // 隐藏滚动弹幕
	StrokeWidth float64 `yaml:"strokeWidth"` // 描边宽度 0 ~ 2.5
	LineHeight  float64 `yaml:"lineHeight"`  // 行高倍数 1.0 ~ 2.2
}

// DefaultOverlayOptions 返回默认选项
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		Opacity:     DefaultOpacity,
		FontSize:    DefaultFontSize,
		Area:        DefaultArea,
		Duration:    DefaultDuration,
		HideScroll:  false,
		StrokeWidth: DefaultStrokeWidth,
		LineHeight:  DefaultLineHeight,
	}
}

// Clamp 返回限制到合法范围后的选项副本
// NaN 视为缺省值
func (o OverlayOptions) Clamp() OverlayOptions {
	return OverlayOptions{
		Opacity:     clamp(orDefault(o.Opacity, DefaultOpacity), 0, 1),
		FontSize:    clamp(orDefault(o.FontSize, DefaultFontSize), MinFontSize, MaxFontSize),
		Area:        clamp(orDefault(o.Area, DefaultArea), MinArea, MaxArea),
		Duration:    math.Max(orDefault(o.Duration, DefaultDuration), MinDuration),
		HideScroll:  o.HideScroll,
		StrokeWidth: clamp(orDefault(o.StrokeWidth, DefaultStrokeWidth), 0, MaxStrokeWidth),
		LineHeight:  clamp(orDefault(o.LineHeight, DefaultLineHeight), MinLineHeight, MaxLineHeight),
	}
}

// DurationMs 返回横穿时长（毫秒），不低于 MinDurationMs
func (o OverlayOptions) DurationMs() float64 {
	return math.Max(o.Duration*1000.0, MinDurationMs)
}

// FontPx 将字号换算为像素
//
// 参数：
//   - density: 每 sp 对应的像素数，<= 0 时按 1 处理
func (o OverlayOptions) FontPx(density float64) float64 {
	if density <= 0 {
		density = 1
	}
	return o.FontSize * density
}

// RowHeight 返回单条轨道的高度（像素），至少为 1
func (o OverlayOptions) RowHeight(fontPx float64) float64 {
	return math.Max(fontPx*o.LineHeight, 1)
}

// LaneCount 根据视口高度计算轨道数，至少为 1
//
// 计算方式：ceil(max(viewportHeight*Area, rowHeight) / rowHeight)
func (o OverlayOptions) LaneCount(viewportHeight, rowHeight float64) int {
	if rowHeight <= 0 {
		return 1
	}
	drawHeight := math.Max(viewportHeight*o.Area, rowHeight)
	lanes := int(math.Ceil(drawHeight / rowHeight))
	if lanes < 1 {
		return 1
	}
	return lanes
}

// MinGap 返回同轨道最小间距（像素）
func MinGap(fontPx float64) float64 {
	return math.Max(fontPx, MinGapPx)
}

// LoadOverlayOptions 从 YAML 文件加载覆盖层选项
// 文件中缺失的字段使用默认值，结果已经过 Clamp
func LoadOverlayOptions(filePath string) (OverlayOptions, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return DefaultOverlayOptions(), fmt.Errorf("failed to read overlay options file: %w", err)
	}
	return ParseOverlayOptions(data)
}

// ParseOverlayOptions 解析 YAML 格式的覆盖层选项
func ParseOverlayOptions(data []byte) (OverlayOptions, error) {
	opts := DefaultOverlayOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return DefaultOverlayOptions(), fmt.Errorf("failed to parse overlay options YAML: %w", err)
	}
	return opts.Clamp(), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}
