// danmaku-term 在终端中运行弹幕覆盖层
//
// 用法：
//
//	go run ./cmd/danmaku-term -feed data/demo_feed.yaml -ws 127.0.0.1:8765
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/gonewx/danmaku/pkg/bridge"
	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/game"
	"github.com/gonewx/danmaku/pkg/tui"
)

var (
	// 命令行参数
	optionsPath = flag.String("config", "data/overlay.yaml", "覆盖层选项 YAML 文件（修改后自动重新加载）")
	feedPath    = flag.String("feed", "data/demo_feed.yaml", "演示弹幕脚本，为空时不播放")
	wsAddr      = flag.String("ws", "", "WebSocket 桥接监听地址")
	playerID    = flag.Int64("player-id", 0, "桥接调用使用的 playerId")
	logPath     = flag.String("log", "", "日志文件（终端界面占用标准输出）")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "danmaku-term: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	opts := config.DefaultOverlayOptions()
	if *optionsPath != "" {
		loaded, err := config.LoadOverlayOptions(*optionsPath)
		if err != nil {
			log.Printf("[Main] Warning: %v (using defaults)", err)
		} else {
			opts = loaded
		}
	}

	var feed *game.Feed
	if *feedPath != "" {
		f, err := game.LoadFeed(*feedPath)
		if err != nil {
			return err
		}
		feed = f
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	host, err := tui.NewHost(screen, tui.Config{Options: opts, Feed: feed})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *optionsPath != "" {
		watcher, err := config.NewOptionsWatcher(*optionsPath, host.ApplyOptions)
		if err != nil {
			log.Printf("[Main] Warning: options hot reload disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	registry := bridge.NewRegistry()
	registry.RegisterHost(*playerID, host)
	defer registry.Unregister(*playerID)

	if *wsAddr != "" {
		server := bridge.NewServer(registry)
		go func() {
			if err := server.ListenAndServe(ctx, *wsAddr); err != nil {
				log.Printf("[Main] Bridge stopped: %v", err)
			}
		}()
	}

	host.Run(ctx)
	return nil
}
