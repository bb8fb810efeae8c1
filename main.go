package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gonewx/danmaku/pkg/app"
	"github.com/gonewx/danmaku/pkg/bridge"
	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	verbose := flag.Bool("verbose", false, "启用详细日志输出")
	optionsPath := flag.String("config", "", "覆盖层选项 YAML 文件（修改后自动重新加载）")
	feedPath := flag.String("feed", "", "演示弹幕脚本 YAML 文件，默认使用内置脚本")
	noFeed := flag.Bool("no-feed", false, "不播放演示脚本")
	fontPath := flag.String("font", "", "字体文件（显示中文需要指定含 CJK 字形的字体）")
	wsAddr := flag.String("ws", "", "WebSocket 桥接监听地址，如 127.0.0.1:8765")
	playerID := flag.Int64("player-id", 0, "桥接调用使用的 playerId")
	flag.Parse()

	embedded.Init(dataFS)

	danmakuApp, err := app.NewApp(app.Config{
		Verbose:     *verbose,
		OptionsPath: *optionsPath,
		FeedPath:    *feedPath,
		NoFeed:      *noFeed,
		FontPath:    *fontPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 选项文件热加载
	if *optionsPath != "" {
		watcher, err := config.NewOptionsWatcher(*optionsPath, danmakuApp.ApplyOptions)
		if err != nil {
			log.Printf("[Main] Warning: options hot reload disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	// 方法调用桥接
	registry := bridge.NewRegistry()
	registry.RegisterHost(*playerID, danmakuApp)
	defer registry.Unregister(*playerID)

	if *wsAddr != "" {
		server := bridge.NewServer(registry)
		go func() {
			if err := server.ListenAndServe(ctx, *wsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "桥接服务错误: %v\n", err)
			}
		}()
	}

	ebiten.SetWindowSize(app.DefaultWindowWidth, app.DefaultWindowHeight)
	ebiten.SetWindowTitle("弹幕覆盖层")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(danmakuApp.Fullscreen())

	if err := ebiten.RunGame(danmakuApp); err != nil {
		fmt.Fprintf(os.Stderr, "运行错误: %v\n", err)
		os.Exit(1)
	}
}
