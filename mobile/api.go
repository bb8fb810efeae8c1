package mobile

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gonewx/danmaku/pkg/bridge"
)

// 原生侧调用入口
//
// 与平台方法通道一致：每次调用都转发到 bridge.Registry，
// 原生侧持有的播放器 ID 固定为 PlayerID。

// PlayerID 移动端唯一覆盖层的播放器 ID
const PlayerID int64 = 0

var registry = bridge.NewRegistry()

// attach 注册宿主（在 init 中调用），选项更新同时写入宿主的设置
func attach(h bridge.Host) {
	registry.RegisterHost(PlayerID, h)
}

// HandleMethodCall 以 JSON 参数执行一次方法调用
//
// 参数：
//   - method: 方法名（addDanmaku、updateOption 等）
//   - argsJSON: JSON 对象，缺少 playerId 时自动补上 PlayerID
//
// 返回：
//   - string: 成功时为空字符串，失败时为 {"code":..,"message":..}
func HandleMethodCall(method, argsJSON string) string {
	args := map[string]any{}
	if argsJSON != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(argsJSON)))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			return encodeError(&bridge.MethodError{Code: bridge.CodeBadArgs, Message: err.Error()})
		}
	}
	if _, ok := args["playerId"]; !ok {
		args["playerId"] = PlayerID
	}
	return encodeError(registry.HandleMethodCall(method, args))
}

func encodeError(err error) string {
	if err == nil {
		return ""
	}
	var me *bridge.MethodError
	if !errors.As(err, &me) {
		me = &bridge.MethodError{Code: bridge.CodeBadArgs, Message: err.Error()}
	}
	data, _ := json.Marshal(me)
	return string(data)
}

// AddDanmaku 提交一条弹幕，argb 为 32 位 ARGB 颜色
func AddDanmaku(text string, argb int64) error {
	return registry.HandleMethodCall(bridge.MethodAddDanmaku, map[string]any{
		"playerId": PlayerID,
		"text":     text,
		"color":    argb,
	})
}

// UpdateOption 更新显示选项
func UpdateOption(opacity, fontSize, area, duration float64, hideScroll bool, strokeWidth, lineHeight float64) error {
	return registry.HandleMethodCall(bridge.MethodUpdateOption, map[string]any{
		"playerId":    PlayerID,
		"opacity":     opacity,
		"fontSize":    fontSize,
		"area":        area,
		"duration":    duration,
		"hideScroll":  hideScroll,
		"strokeWidth": strokeWidth,
		"lineHeight":  lineHeight,
	})
}

// Clear 清屏
func Clear() error {
	return registry.HandleMethodCall(bridge.MethodClear, map[string]any{"playerId": PlayerID})
}

// Pause 暂停
func Pause() error {
	return registry.HandleMethodCall(bridge.MethodPause, map[string]any{"playerId": PlayerID})
}

// Resume 继续
func Resume() error {
	return registry.HandleMethodCall(bridge.MethodResume, map[string]any{"playerId": PlayerID})
}

// Dispose 平台视图销毁时调用
func Dispose() {
	registry.Unregister(PlayerID)
}
