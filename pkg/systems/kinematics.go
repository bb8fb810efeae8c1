package systems

import (
	"math"

	"github.com/gonewx/danmaku/pkg/config"
)

// 弹幕运动学
//
// 弹幕从视口右边界外（左边缘 x = W）匀速移动到左边界外（右边缘 x = 0），
// 总距离 W + textWidth，耗时 durationMs。

// ScrollSpeed 计算弹幕速度（像素/毫秒），不低于 config.SpeedEpsilon
func ScrollSpeed(viewportWidth, textWidth, durationMs float64) float64 {
	if durationMs <= 0 {
		durationMs = config.MinDurationMs
	}
	return math.Max((viewportWidth+textWidth)/durationMs, config.SpeedEpsilon)
}

// ScrollX 计算弹幕左边缘在 elapsedMs 时刻的 X 坐标
func ScrollX(viewportWidth, speed float64, elapsedMs int64) float64 {
	return viewportWidth - float64(elapsedMs)*speed
}

// HasExited 判断弹幕是否已完全移出左边界
func HasExited(x, textWidth float64) bool {
	return x+textWidth < 0
}

// ExitAfterMs 返回弹幕从出生到完全移出所需的毫秒数
func ExitAfterMs(viewportWidth, textWidth, speed float64) float64 {
	return (viewportWidth + textWidth) / math.Max(speed, config.SpeedEpsilon)
}
