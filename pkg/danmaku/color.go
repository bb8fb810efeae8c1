package danmaku

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ColorFromARGB 将 32 位 ARGB（Android Color 整数格式）转换为 NRGBA
func ColorFromARGB(argb uint32) color.NRGBA {
	return color.NRGBA{
		A: uint8(argb >> 24),
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
	}
}

// ARGB 将 NRGBA 转换回 32 位 ARGB
func ARGB(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// ParseColor 解析颜色字符串
//
// 支持的格式：
//   - "#RRGGBB"（不透明）
//   - "#AARRGGBB"
//   - "0xAARRGGBB" 或十进制整数（ARGB）
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q: %w", s, err)
		}
		switch len(hex) {
		case 6:
			return 0xFF000000 | uint32(v), nil
		case 8:
			return uint32(v), nil
		default:
			return 0, fmt.Errorf("invalid color %q: want #RRGGBB or #AARRGGBB", s)
		}
	}

	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}

// applyOpacity 将全局不透明度叠加到颜色自身的 alpha 上，结果限制在 [0, 255]
func applyOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	alpha := math.Round(float64(c.A) * opacity)
	c.A = uint8(math.Max(0, math.Min(255, alpha)))
	return c
}

// strokeColor 返回描边颜色：黑色，alpha 跟随填充色但上限 220；不透明度过低时不描边
func strokeColor(fillAlpha uint8, opacity float64) color.NRGBA {
	factor := 0.45
	if opacity < 0.25 {
		factor = 0
	}
	alpha := math.Min(220, math.Max(0, float64(fillAlpha)*factor))
	return color.NRGBA{A: uint8(alpha)}
}
