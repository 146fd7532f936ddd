// services/select_mode.go
package services

import (
	"log"

	"github.com/GrainArc/SectorMap/methods"
	"github.com/GrainArc/SectorMap/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SelectModeName 选择模式名称
const SelectModeName = "select"

// DefaultClickTolerance 点击查询框的半径（度）
const DefaultClickTolerance = 1e-9

// DefaultHandleTolerance 拾取控制点的距离（墨卡托米）
const DefaultHandleTolerance = 25.0

// ClickHandler 非扇形要素的默认选择行为
type ClickHandler interface {
	OnClick(event models.PointerEvent, hits []*geojson.Feature) error
	CleanUp() error
}

// SelectMode 选择模式：点击扇形进入编辑，点击其它要素或空白处退回默认选择
type SelectMode struct {
	ctx             *ModeContext
	fallback        ClickHandler
	tolerance       float64
	handleTolerance float64
	editing         *SegmentEditing
	released        *orb.Point // 拖拽结束的位置，紧随其后的同位置点击不改变选择
}

func NewSelectMode(ctx *ModeContext, fallback ClickHandler, tolerance, handleTolerance float64) *SelectMode {
	if fallback == nil {
		fallback = NewFeatureSelector(ctx.Store)
	}
	if tolerance <= 0 {
		tolerance = DefaultClickTolerance
	}
	if handleTolerance <= 0 {
		handleTolerance = DefaultHandleTolerance
	}
	return &SelectMode{ctx: ctx, fallback: fallback, tolerance: tolerance, handleTolerance: handleTolerance}
}

func (m *SelectMode) Name() string {
	return SelectModeName
}

func (m *SelectMode) Start() {
	m.ctx.setCursor("pointer")
}

func (m *SelectMode) Stop() {
	if err := m.CleanUp(); err != nil {
		log.Printf("select mode cleanup: %v", err)
	}
	m.ctx.setCursor("unset")
}

// Editing 当前编辑会话，无会话时为nil
func (m *SelectMode) Editing() *SegmentEditing {
	return m.editing
}

func (m *SelectMode) CleanUp() error {
	m.destroySegmentEditing()
	return m.fallback.CleanUp()
}

func (m *SelectMode) initSegmentEditing(sectorID models.FeatureID, props models.SegmentProps) error {
	editing, err := NewSegmentEditing(m.ctx.Store, sectorID, props)
	if err != nil {
		return err
	}
	m.editing = editing
	return nil
}

func (m *SelectMode) destroySegmentEditing() {
	if m.editing != nil {
		m.editing.Destroy()
		m.editing = nil
	}
	m.released = nil
}

// search 以光标为中心的近零面积查询
func (m *SelectMode) search(pos orb.Point) []*geojson.Feature {
	query := orb.Bound{Min: pos, Max: pos}.Pad(m.tolerance)
	return m.ctx.Store.Search(query)
}

// releaseClick 是否为拖拽结束时宿主补发的点击
func (m *SelectMode) releaseClick(pos orb.Point) bool {
	if m.released == nil {
		return false
	}
	released := *m.released
	m.released = nil
	d := methods.PlanarDistance(methods.ToMercator(released), methods.ToMercator(pos))
	return d <= m.handleTolerance
}

func (m *SelectMode) OnClick(event models.PointerEvent) error {
	if m.editing != nil && m.releaseClick(event.Pos()) {
		return nil
	}
	hits := m.search(event.Pos())

	// 点击落在本会话的控制点或方向线上，不改变选择
	if m.editing != nil {
		for _, f := range hits {
			if id, _ := f.ID.(string); m.editing.Owns(id) {
				return nil
			}
		}
	}

	var feature *geojson.Feature
	if len(hits) > 0 {
		feature = hits[0]
	}
	if feature != nil {
		if props, ok := models.DecodeSegmentProps(feature.Properties); ok {
			id, _ := feature.ID.(string)
			if m.editing != nil && m.editing.SectorID() != id {
				m.destroySegmentEditing()
			}
			if m.editing == nil {
				if err := m.fallback.CleanUp(); err != nil {
					return err
				}
				return m.initSegmentEditing(id, props)
			}
			return nil
		}
	}

	m.destroySegmentEditing()
	return m.fallback.OnClick(event, hits)
}

func (m *SelectMode) OnPointerMove(event models.PointerEvent) error {
	if m.editing == nil || m.editing.Dragged() == "" {
		return nil
	}
	return m.editing.Drag(event.Pos())
}

func (m *SelectMode) OnKeyUp(models.KeyEvent) error {
	return nil
}

// OnDragStart 按下位置附近有可拖拽控制点时开始拖拽
func (m *SelectMode) OnDragStart(event models.PointerEvent) bool {
	m.released = nil
	if m.editing == nil {
		return false
	}
	role, ok := m.editing.NearestHandle(event.Pos(), m.handleTolerance)
	if !ok {
		return false
	}
	return m.editing.BeginDragRole(role)
}

func (m *SelectMode) OnDrag(event models.PointerEvent) error {
	return m.OnPointerMove(event)
}

func (m *SelectMode) OnDragEnd(event models.PointerEvent) {
	if m.editing == nil {
		return
	}
	if m.editing.Dragged() != "" {
		pos := event.Pos()
		m.released = &pos
	}
	m.editing.EndDrag()
}

// FeatureSelector 默认选择行为：点中的第一个要素标记为 selected
type FeatureSelector struct {
	store    FeatureStore
	selected models.FeatureID
}

func NewFeatureSelector(store FeatureStore) *FeatureSelector {
	return &FeatureSelector{store: store}
}

// Selected 当前选中的要素
func (s *FeatureSelector) Selected() models.FeatureID {
	return s.selected
}

func (s *FeatureSelector) OnClick(_ models.PointerEvent, hits []*geojson.Feature) error {
	var target models.FeatureID
	for _, f := range hits {
		if id, _ := f.ID.(string); id != "" {
			target = id
			break
		}
	}
	if target == s.selected {
		return nil
	}
	s.deselect()
	if target != "" {
		s.store.UpdateProperty([]PropertyUpdate{{ID: target, Property: models.PropSelected, Value: true}})
		s.selected = target
	}
	return nil
}

func (s *FeatureSelector) CleanUp() error {
	s.deselect()
	return nil
}

func (s *FeatureSelector) deselect() {
	if s.selected == "" {
		return
	}
	if _, ok := s.store.GetPropertiesCopy(s.selected); ok {
		s.store.UpdateProperty([]PropertyUpdate{{ID: s.selected, Property: models.PropSelected, Value: false}})
	}
	s.selected = ""
}
