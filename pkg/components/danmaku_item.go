package components

import "image/color"

// DanmakuItem 滚动弹幕组件
//
// 在被轨道调度器接纳时创建，完全移出左边界或清屏时销毁。
// 除 BornAtMs 外所有字段在接纳后不再改变：
//   - TextWidth 按接纳时的字号测量，之后字号变化也不重新测量
//   - LaneIndex / Y 按接纳时的轨道与行高计算
//   - BornAtMs 只会被暂停/恢复整体平移
type DanmakuItem struct {
	Text      string
	Color     color.NRGBA // 原始颜色，绘制时再叠加全局不透明度
	TextWidth float64     // 文本像素宽度
	LaneIndex int         // 所在轨道（从 0 开始）
	Y         float64     // 绘制基线 Y 坐标
	BornAtMs  int64       // 进入屏幕右边界的时刻（单调时钟毫秒）
}

// LaneTail 轨道尾部快照
//
// 记录某条轨道最近一次接纳的弹幕的运动参数，仅用于下一次接纳判定。
// 与 DanmakuItem 分开存储：弹幕过期被移除后，轨道仍需要能查询其尾部
type LaneTail struct {
	TextWidth float64 // 像素宽度
	BornAtMs  int64   // 接纳时刻
	Speed     float64 // 像素/毫秒
}
