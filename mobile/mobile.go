//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
//
// 此文件仅在使用 -tags mobile 构建时编译。
// 手动构建：
//
//	# Android
//	cp -r data mobile/ && ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.gonewx.danmaku -o build/android/danmaku.aar -v ./mobile
//
//	# iOS (仅 macOS)
//	cp -r data mobile/ && ebitenmobile bind -target ios -tags mobile -o build/ios/Danmaku.xcframework -v ./mobile
package mobile

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/mobile"

	"github.com/gonewx/danmaku/pkg/app"
	"github.com/gonewx/danmaku/pkg/embedded"
)

func init() {
	// dataFS 在 embed.go 中声明
	embedded.Init(dataFS)

	// 移动端弹幕来自原生侧调用，不播放演示脚本
	cfg := app.Config{
		Verbose: true,
		NoFeed:  true,
	}

	danmakuApp, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("弹幕覆盖层初始化失败: %v", err)
	}
	attach(danmakuApp)

	mobile.SetGame(danmakuApp)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
