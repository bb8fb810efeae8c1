package game

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// FontManager 管理弹幕字体，按像素字号缓存字体 face
//
// 覆盖层在桥接协程中测量文本、在渲染线程中绘制，两边共用同一个 FontManager
type FontManager struct {
	mu     sync.Mutex
	source *text.GoTextFaceSource
	faces  map[float64]*text.GoTextFace
}

// NewFontManager 创建字体管理器
//
// 参数：
//   - path: TTF/OTF 字体文件路径，为空时使用内置的 Go Regular 字体（不含 CJK 字形）
//
// 返回：
//   - *FontManager: 字体管理器
//   - error: 读取或解析字体失败时返回错误
func NewFontManager(path string) (*FontManager, error) {
	fontData := goregular.TTF
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file %s: %w", path, err)
		}
		fontData = data
	}

	source, err := text.NewGoTextFaceSource(bytes.NewReader(fontData))
	if err != nil {
		return nil, fmt.Errorf("failed to create font source for %q: %w", path, err)
	}

	return &FontManager{
		source: source,
		faces:  make(map[float64]*text.GoTextFace),
	}, nil
}

// Face 返回指定像素字号的字体 face（带缓存）
func (fm *FontManager) Face(sizePx float64) *text.GoTextFace {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if face, ok := fm.faces[sizePx]; ok {
		return face
	}
	face := &text.GoTextFace{
		Source:    fm.source,
		Size:      sizePx,
		Direction: text.DirectionLeftToRight,
	}
	fm.faces[sizePx] = face
	return face
}

// MeasureText 返回文本在指定像素字号下的宽度，实现 danmaku.TextMeasurer
func (fm *FontManager) MeasureText(s string, sizePx float64) float64 {
	return text.Advance(s, fm.Face(sizePx))
}
