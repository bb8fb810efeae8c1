package game

import (
	"fmt"
	"log"
	"sync"

	"github.com/gonewx/danmaku/pkg/config"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// ViewerSettings 观看端设置
// 注意：这些设置是全局的，不绑定到特定播放器
type ViewerSettings struct {
	// 弹幕显示选项
	Overlay config.OverlayOptions `yaml:"overlay"`

	// 显示设置
	Fullscreen bool `yaml:"fullscreen"` // 启动时是否全屏
}

// DefaultSettings 返回默认设置
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		Overlay:    config.DefaultOverlayOptions(),
		Fullscreen: false,
	}
}

// SettingsManager 设置管理器
// 负责观看端设置的加载、保存和内存管理，可以被宿主的输入协程和桥接协程同时调用
type SettingsManager struct {
	mu           sync.Mutex
	gdataManager *gdata.Manager  // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *ViewerSettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "danmaku"

	// FontSizeStep 键盘调整字号的步长
	FontSizeStep = 1.0
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 保留给调用方检查（加载失败只记录日志，不影响创建）
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// OpenSettingsManager 使用应用名打开 gdata 存储并创建设置管理器
// gdata 打开失败时退化为仅内存设置
func OpenSettingsManager(appName string) *SettingsManager {
	if err := ensureStorageDir(appName); err != nil {
		log.Printf("[SettingsManager] Warning: %v", err)
	}

	gdataManager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[SettingsManager] Warning: gdata unavailable: %v (settings will not persist)", err)
		gdataManager = nil
	}
	sm, _ := NewSettingsManager(gdataManager)
	return sm
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置。
// 文件中缺失的字段取默认值，数值被限制到合法范围。
//
// 返回：
//   - error: 如果读取或反序列化失败返回错误
func (sm *SettingsManager) Load() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	// 降级模式：无法持久化，使用默认设置
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.Overlay = loaded.Overlay.Clamp()

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
//
// 返回：
//   - error: 如果序列化或保存失败返回错误
func (sm *SettingsManager) Save() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 返回当前设置的副本
func (sm *SettingsManager) GetSettings() ViewerSettings {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return *sm.settings
}

// OverlayOptions 返回当前弹幕显示选项
func (sm *SettingsManager) OverlayOptions() config.OverlayOptions {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.settings.Overlay
}

// SetOverlayOptions 设置弹幕显示选项
//
// 数值会被限制到合法范围
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetOverlayOptions(opts config.OverlayOptions) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.settings.Overlay = opts.Clamp()
}

// AdjustFontSize 按步长调整字号，返回调整后的选项
//
// 参数：
//   - steps: 正数放大，负数缩小
func (sm *SettingsManager) AdjustFontSize(steps int) config.OverlayOptions {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	opts := sm.settings.Overlay
	opts.FontSize += float64(steps) * FontSizeStep
	sm.settings.Overlay = opts.Clamp()
	return sm.settings.Overlay
}

// ToggleHideScroll 切换隐藏滚动弹幕，返回切换后的选项
func (sm *SettingsManager) ToggleHideScroll() config.OverlayOptions {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.settings.Overlay.HideScroll = !sm.settings.Overlay.HideScroll
	return sm.settings.Overlay
}

// SetFullscreen 设置全屏模式
//
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.settings.Fullscreen = enabled
}
