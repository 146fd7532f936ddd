package services

import (
	"github.com/GrainArc/SectorMap/models"
)

// Mode 绘制模式需要实现的事件接口
type Mode interface {
	Name() string
	Start()
	Stop()
	OnClick(event models.PointerEvent) error
	OnPointerMove(event models.PointerEvent) error
	OnKeyUp(event models.KeyEvent) error
	CleanUp() error
}

// DragHandler 支持拖拽控制点的模式
type DragHandler interface {
	// OnDragStart 返回true表示事件被模式接管（宿主不应平移地图）
	OnDragStart(event models.PointerEvent) bool
	OnDrag(event models.PointerEvent) error
	OnDragEnd(event models.PointerEvent)
}

// ModeContext 模式之间共享的上下文：要素存储与宿主回调
type ModeContext struct {
	Store FeatureStore
	// OnFinish 扇形绘制完成
	OnFinish func(id models.FeatureID, ctx models.FinishContext)
	// SetCursor 设置地图光标样式
	SetCursor func(cursor string)
}

func (c *ModeContext) finish(id models.FeatureID, ctx models.FinishContext) {
	if c.OnFinish != nil {
		c.OnFinish(id, ctx)
	}
}

func (c *ModeContext) setCursor(cursor string) {
	if c.SetCursor != nil {
		c.SetCursor(cursor)
	}
}
