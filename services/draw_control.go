// services/draw_control.go
package services

import (
	"fmt"
	"log"
	"sync"

	"github.com/GrainArc/SectorMap/models"
	"github.com/paulmach/orb/geojson"
)

// ControlOptions 绘制控件的回调
type ControlOptions struct {
	OnChange         func(ids []models.FeatureID, kind ChangeKind)
	OnReady          func()
	OnFeatureDeleted func(ids []models.FeatureID)
	OnFinish         func(id models.FeatureID, ctx models.FinishContext)
	SetCursor        func(cursor string)
	ClickTolerance   float64
	HandleTolerance  float64 // 拾取控制点的距离（墨卡托米）
}

// DrawControl 单个地图实例的绘制上下文：持有要素存储和各绘制模式，
// 串行分发宿主事件，并把存储变化转发给宿主
type DrawControl struct {
	mu      sync.Mutex
	store   *MemoryStore
	opts    ControlOptions
	modes   map[string]Mode
	active  Mode
	ready   bool
	segment *SegmentMode
	sel     *SelectMode
}

func NewDrawControl(store *MemoryStore, opts ControlOptions) *DrawControl {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &DrawControl{store: store, opts: opts}
	ctx := &ModeContext{
		Store:     store,
		OnFinish:  opts.OnFinish,
		SetCursor: opts.SetCursor,
	}
	c.segment = NewSegmentMode(ctx)
	c.sel = NewSelectMode(ctx, nil, opts.ClickTolerance, opts.HandleTolerance)
	c.modes = map[string]Mode{
		c.segment.Name(): c.segment,
		c.sel.Name():     c.sel,
	}
	store.OnChange(func(ids []models.FeatureID, kind ChangeKind) {
		if c.opts.OnChange != nil {
			c.opts.OnChange(ids, kind)
		}
	})
	return c
}

// Store 要素存储
func (c *DrawControl) Store() *MemoryStore {
	return c.store
}

// Start 初始化完成，默认进入选择模式并通知宿主
func (c *DrawControl) Start() {
	c.mu.Lock()
	if c.active == nil {
		c.active = c.sel
		c.active.Start()
	}
	c.ready = true
	c.mu.Unlock()
	if c.opts.OnReady != nil {
		c.opts.OnReady()
	}
}

// Ready 是否已初始化
func (c *DrawControl) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// SetMode 切换绘制模式，原模式会被停止并清理
func (c *DrawControl) SetMode(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode, ok := c.modes[name]
	if !ok {
		return fmt.Errorf("unknown mode %q", name)
	}
	if c.active == mode {
		return nil
	}
	if c.active != nil {
		c.active.Stop()
	}
	c.active = mode
	mode.Start()
	log.Printf("draw control: mode %s", name)
	return nil
}

// Mode 当前模式名称
func (c *DrawControl) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.Name()
}

// Segment 扇形绘制模式
func (c *DrawControl) Segment() *SegmentMode {
	return c.segment
}

// Select 选择模式
func (c *DrawControl) Select() *SelectMode {
	return c.sel
}

func (c *DrawControl) dispatch(fn func(Mode) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return fmt.Errorf("draw control not started: %w", models.ErrUndefined)
	}
	return fn(c.active)
}

func (c *DrawControl) Click(event models.PointerEvent) error {
	return c.dispatch(func(m Mode) error { return m.OnClick(event) })
}

func (c *DrawControl) PointerMove(event models.PointerEvent) error {
	return c.dispatch(func(m Mode) error { return m.OnPointerMove(event) })
}

func (c *DrawControl) KeyUp(event models.KeyEvent) error {
	return c.dispatch(func(m Mode) error { return m.OnKeyUp(event) })
}

// PointerDown 返回true表示模式接管了拖拽
func (c *DrawControl) PointerDown(event models.PointerEvent) (bool, error) {
	var handled bool
	err := c.dispatch(func(m Mode) error {
		if d, ok := m.(DragHandler); ok {
			handled = d.OnDragStart(event)
		}
		return nil
	})
	return handled, err
}

func (c *DrawControl) PointerUp(event models.PointerEvent) error {
	return c.dispatch(func(m Mode) error {
		if d, ok := m.(DragHandler); ok {
			d.OnDragEnd(event)
		}
		return nil
	})
}

// DeleteFeatures 宿主删除要素（例如工具栏删除按钮），正在编辑的扇形会先退出编辑
func (c *DrawControl) DeleteFeatures(ids []models.FeatureID) {
	c.mu.Lock()
	if e := c.sel.Editing(); e != nil {
		for _, id := range ids {
			if id == e.SectorID() {
				c.sel.destroySegmentEditing()
				break
			}
		}
	}
	var existing []models.FeatureID
	for _, id := range ids {
		if c.store.Has(id) {
			existing = append(existing, id)
		}
	}
	c.store.Delete(existing)
	c.mu.Unlock()
	if len(existing) > 0 && c.opts.OnFeatureDeleted != nil {
		c.opts.OnFeatureDeleted(existing)
	}
}

// Features 当前全部要素
func (c *DrawControl) Features() []*geojson.Feature {
	return c.store.All()
}
