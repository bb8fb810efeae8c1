// Package app 提供弹幕覆盖层的 Ebitengine 宿主
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
//
// 宿主负责：测量文本（text/v2）、提供视口尺寸、按重绘请求驱动帧回调、
// 播放演示弹幕脚本以及处理键盘快捷键。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gonewx/danmaku/pkg/config"
	"github.com/gonewx/danmaku/pkg/danmaku"
	"github.com/gonewx/danmaku/pkg/embedded"
	"github.com/gonewx/danmaku/pkg/game"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// 默认窗口尺寸与内置资源路径
const (
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 720

	DefaultOptionsPath = "data/overlay.yaml"
	DefaultFeedPath    = "data/demo_feed.yaml"

	// SettingsAppName gdata 存储使用的应用名
	SettingsAppName = "danmaku"
)

// backgroundColor 模拟视频画面的深色背景
var backgroundColor = color.RGBA{R: 16, G: 16, B: 24, A: 255}

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// OptionsPath 覆盖层选项 YAML 文件，为空时使用已保存的设置（首次运行读取内置默认值）
	OptionsPath string
	// FeedPath 演示弹幕脚本，为空时使用内置脚本
	FeedPath string
	// NoFeed 不播放演示脚本（只接收桥接调用）
	NoFeed bool
	// FontPath 字体文件，为空时使用内置字体
	FontPath string
	// Settings 设置管理器，为 nil 时打开 gdata 存储
	Settings *game.SettingsManager
	// Clock 覆盖层与演示脚本共用的时钟，为 nil 时使用单调时钟
	Clock danmaku.Clock
}

// App 弹幕覆盖层宿主，实现 ebiten.Game 接口
type App struct {
	overlay  *danmaku.Overlay
	fonts    *game.FontManager
	settings *game.SettingsManager
	feed     *game.FeedPlayer
	clock    danmaku.Clock

	viewportMu sync.Mutex
	vw, vh     float64

	// dirty 由覆盖层的重绘请求置位，Draw 消费后清除
	dirty atomic.Bool

	verbose bool
}

// NewApp 创建并初始化应用
//
// 使用内置资源前必须先调用 embedded.Init()。
func NewApp(cfg Config) (*App, error) {
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	fonts, err := game.NewFontManager(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("字体加载失败: %w", err)
	}

	settings := cfg.Settings
	if settings == nil {
		settings = game.OpenSettingsManager(SettingsAppName)
	}

	opts, err := initialOptions(cfg.OptionsPath, settings)
	if err != nil {
		return nil, fmt.Errorf("选项加载失败: %w", err)
	}

	// 由重绘请求决定何时清屏
	ebiten.SetScreenClearedEveryFrame(false)

	clock := cfg.Clock
	if clock == nil {
		clock = danmaku.NewMonotonicClock()
	}

	a := &App{
		fonts:    fonts,
		settings: settings,
		clock:    clock,
		verbose:  cfg.Verbose,
	}

	a.overlay, err = danmaku.NewOverlay(danmaku.Capabilities{
		Measurer: fonts,
		Viewport: danmaku.ViewportFunc(a.viewportSize),
		Clock:    a.clock,
		Redraw:   danmaku.RedrawFunc(a.requestRedraw),
	})
	if err != nil {
		return nil, fmt.Errorf("覆盖层创建失败: %w", err)
	}
	a.overlay.UpdateOption(opts)
	settings.SetOverlayOptions(opts)

	if !cfg.NoFeed {
		feed, err := loadFeed(cfg.FeedPath)
		if err != nil {
			return nil, fmt.Errorf("弹幕脚本加载失败: %w", err)
		}
		a.feed = game.NewFeedPlayer(feed, a.clock.NowMs())
		log.Printf("[App] Demo feed loaded: %d entries", feed.Len())
	}

	return a, nil
}

// initialOptions 选项来源优先级：显式文件 > 已保存设置 > 内置默认文件
func initialOptions(path string, settings *game.SettingsManager) (config.OverlayOptions, error) {
	if path != "" {
		return config.LoadOverlayOptions(path)
	}
	saved := settings.OverlayOptions()
	if saved != config.DefaultOverlayOptions() || !embedded.Exists(DefaultOptionsPath) {
		return saved, nil
	}
	data, err := embedded.ReadFile(DefaultOptionsPath)
	if err != nil {
		return saved, err
	}
	return config.ParseOverlayOptions(data)
}

func loadFeed(path string) (*game.Feed, error) {
	if path != "" {
		return game.LoadFeed(path)
	}
	data, err := embedded.ReadFile(DefaultFeedPath)
	if err != nil {
		return nil, err
	}
	return game.ParseFeed(data)
}

// Overlay 返回覆盖层，供桥接和选项热加载使用
func (a *App) Overlay() *danmaku.Overlay {
	return a.overlay
}

// ApplyOptions 更新覆盖层选项并保存到设置
//
// 选项文件热加载和桥接的 updateOption 都经由这里，之后的快捷键在此基础上调整。
func (a *App) ApplyOptions(opts config.OverlayOptions) {
	a.overlay.UpdateOption(opts)
	a.settings.SetOverlayOptions(opts)
	a.saveSettings()
}

func (a *App) viewportSize() (float64, float64) {
	a.viewportMu.Lock()
	defer a.viewportMu.Unlock()
	return a.vw, a.vh
}

func (a *App) requestRedraw() {
	a.dirty.Store(true)
}

func (a *App) saveSettings() {
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: failed to save settings: %v", err)
	}
}

// Update 处理输入并推进演示脚本
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	a.handleInput()
	a.advanceFeed()
	return nil
}

// advanceFeed 提交演示脚本中已到期的弹幕，暂停时不推进
//
// 暂停状态每个 tick 从覆盖层读取，桥接调用引起的暂停和恢复也会同步到脚本。
func (a *App) advanceFeed() {
	if a.syncFeedPause() || a.feed == nil {
		return
	}
	if due := a.feed.Due(a.clock.NowMs()); len(due) > 0 {
		a.overlay.AddDanmakuBatch(due)
	}
}

func (a *App) handleInput() {
	// 空格 暂停/继续
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.togglePause()
	}

	// C 清屏
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		a.overlay.ClearDanmaku()
		log.Printf("[App] Cleared")
	}

	// +/- 调整字号
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		a.adjustFontSize(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		a.adjustFontSize(-1)
	}

	// H 隐藏/显示滚动弹幕
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		a.toggleHideScroll()
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		fullscreen := !ebiten.IsFullscreen()
		ebiten.SetFullscreen(fullscreen)
		a.settings.SetFullscreen(fullscreen)
		a.saveSettings()
	}
}

func (a *App) adjustFontSize(steps int) {
	a.overlay.UpdateOption(a.settings.AdjustFontSize(steps))
	a.saveSettings()
}

func (a *App) toggleHideScroll() {
	a.overlay.UpdateOption(a.settings.ToggleHideScroll())
	a.saveSettings()
}

// togglePause 暂停时演示脚本一起暂停，恢复时整体后移
func (a *App) togglePause() {
	if a.overlay.IsPaused() {
		a.overlay.Resume()
		log.Printf("[App] Resumed")
	} else {
		a.overlay.Pause()
		log.Printf("[App] Paused")
	}
	a.syncFeedPause()
}

// syncFeedPause 让演示脚本跟随覆盖层的暂停状态，返回是否暂停
func (a *App) syncFeedPause() bool {
	paused := a.overlay.IsPaused()
	if a.feed != nil {
		a.feed.SyncPause(a.clock.NowMs(), paused)
	}
	return paused
}

// Draw 绘制一帧
//
// 屏幕不会每帧自动清空：没有重绘请求时保留上一帧（暂停时画面静止），
// 有请求时清屏并执行覆盖层的帧回调，帧回调会在仍有弹幕时再次请求重绘。
func (a *App) Draw(screen *ebiten.Image) {
	if !a.dirty.Swap(false) {
		return
	}
	screen.Fill(backgroundColor)
	a.overlay.StepFrame(&screenCanvas{screen: screen, fonts: a.fonts})
}

// Layout 使用窗口的实际尺寸作为视口，尺寸变化时请求重绘
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := float64(outsideWidth), float64(outsideHeight)

	a.viewportMu.Lock()
	changed := w != a.vw || h != a.vh
	a.vw, a.vh = w, h
	a.viewportMu.Unlock()

	if changed {
		a.requestRedraw()
	}
	return outsideWidth, outsideHeight
}

// Fullscreen 返回保存的全屏设置
func (a *App) Fullscreen() bool {
	return a.settings.GetSettings().Fullscreen
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
