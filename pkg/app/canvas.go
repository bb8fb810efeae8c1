package app

import (
	"image/color"
	"math"

	"github.com/gonewx/danmaku/pkg/game"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// strokeOffsets 描边的 8 个方向
var strokeOffsets = [8][2]float64{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// screenCanvas 将覆盖层的绘制请求转换为 text/v2 绘制
//
// 覆盖层给出的 y 是文字基线，text.Draw 的原点在行顶部，需要减去上升高度
type screenCanvas struct {
	screen *ebiten.Image
	fonts  *game.FontManager
}

// StrokeText 通过 8 个方向的偏移绘制模拟描边
func (c *screenCanvas) StrokeText(s string, x, y, sizePx, strokeWidth float64, clr color.NRGBA) {
	if clr.A == 0 {
		return
	}
	face := c.fonts.Face(sizePx)
	top := y - face.Metrics().HAscent
	r := math.Max(strokeWidth, 0.5)

	for _, off := range strokeOffsets {
		op := &text.DrawOptions{}
		op.GeoM.Translate(x+off[0]*r, top+off[1]*r)
		op.ColorScale.ScaleWithColor(clr)
		text.Draw(c.screen, s, face, op)
	}
}

// FillText 绘制文字本体
func (c *screenCanvas) FillText(s string, x, y, sizePx float64, clr color.NRGBA) {
	face := c.fonts.Face(sizePx)

	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y-face.Metrics().HAscent)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(c.screen, s, face, op)
}
