// services/segment_mode.go
package services

import (
	"fmt"
	"log"

	"github.com/GrainArc/SectorMap/methods"
	"github.com/GrainArc/SectorMap/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SegmentState 扇形绘制状态
type SegmentState int

const (
	StateIdle              SegmentState = iota
	StateAnchorPlaced                   // 已放置顶点
	StateDirectionLiveDrag              // 方向线跟随光标
	StateAngleLiveDrag                  // 方向已固定，张角跟随光标
	StateCommitted                      // 扇形已提交，随即回到 idle
)

func (s SegmentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnchorPlaced:
		return "anchorPlaced"
	case StateDirectionLiveDrag:
		return "directionLiveDrag"
	case StateAngleLiveDrag:
		return "angleLiveDrag"
	case StateCommitted:
		return "committed"
	}
	return fmt.Sprintf("SegmentState(%d)", int(s))
}

// SegmentMode 扇形绘制模式：点击顶点 → 点击方向终点 → 移动调整张角 → 点击完成
type SegmentMode struct {
	ctx   *ModeContext
	state SegmentState

	dirStartID  models.FeatureID
	dirEndID    models.FeatureID
	directionID models.FeatureID
	sectorID    models.FeatureID
	arcStartID  models.FeatureID
	arcEndID    models.FeatureID
}

func NewSegmentMode(ctx *ModeContext) *SegmentMode {
	return &SegmentMode{ctx: ctx}
}

func (m *SegmentMode) Name() string {
	return models.SegmentMode
}

// State 当前绘制状态
func (m *SegmentMode) State() SegmentState {
	return m.state
}

// SectorID 正在绘制的扇形，未生成时为空
func (m *SegmentMode) SectorID() models.FeatureID {
	return m.sectorID
}

func (m *SegmentMode) Start() {
	m.ctx.setCursor("crosshair")
}

func (m *SegmentMode) Stop() {
	m.cleanUp(false)
	m.ctx.setCursor("unset")
}

func (m *SegmentMode) CleanUp() error {
	m.cleanUp(false)
	return nil
}

func (m *SegmentMode) OnClick(event models.PointerEvent) error {
	pos := event.Pos()
	store := m.ctx.Store

	switch m.state {
	case StateIdle:
		direction := geojson.NewFeature(orb.LineString{pos, pos})
		direction.Properties = models.AuxiliaryProperties()
		direction.Properties[models.PropCreating] = true
		ids := store.Create([]*geojson.Feature{
			handleFeature(models.RoleDirStart, pos),
			direction,
		})
		m.dirStartID, m.directionID = ids[0], ids[1]
		m.state = StateAnchorPlaced

	case StateAnchorPlaced, StateDirectionLiveDrag:
		apex, err := m.apex()
		if err != nil {
			return err
		}
		store.UpdateGeometry([]GeometryUpdate{
			{ID: m.directionID, Geometry: orb.LineString{apex, pos}},
		})
		ids := store.Create([]*geojson.Feature{handleFeature(models.RoleDirEnd, pos)})
		m.dirEndID = ids[0]
		m.state = StateAngleLiveDrag

	case StateAngleLiveDrag:
		if m.sectorID == "" {
			log.Printf("segment: click before the sector was shaped, ignored")
			return nil
		}
		return m.completeFigure()
	}
	return nil
}

func (m *SegmentMode) OnPointerMove(event models.PointerEvent) error {
	switch m.state {
	case StateAnchorPlaced, StateDirectionLiveDrag:
		apex, err := m.apex()
		if err != nil {
			return err
		}
		m.ctx.Store.UpdateGeometry([]GeometryUpdate{
			{ID: m.directionID, Geometry: orb.LineString{apex, event.Pos()}},
		})
		m.state = StateDirectionLiveDrag
		return nil

	case StateAngleLiveDrag:
		return m.updateSector(event.Pos())
	}
	return nil
}

func (m *SegmentMode) OnKeyUp(event models.KeyEvent) error {
	switch event.Key {
	case models.KeyEscape, models.KeyEnter:
		if m.state != StateIdle {
			m.cleanUp(false)
		}
	}
	return nil
}

// direction 读取方向线的两个端点
func (m *SegmentMode) direction() (orb.Point, orb.Point, error) {
	if err := models.AssertDefined(m.directionID, "directionId"); err != nil {
		return orb.Point{}, orb.Point{}, err
	}
	g, ok := m.ctx.Store.GetGeometryCopy(m.directionID)
	line, isLine := g.(orb.LineString)
	if !ok || !isLine || len(line) != 2 {
		return orb.Point{}, orb.Point{}, fmt.Errorf("direction geometry %s: %w", m.directionID, models.ErrUndefined)
	}
	return line[0], line[1], nil
}

func (m *SegmentMode) apex() (orb.Point, error) {
	apex, _, err := m.direction()
	return apex, err
}

func (m *SegmentMode) updateSector(cursor orb.Point) error {
	apex, dirEnd, err := m.direction()
	if err != nil {
		return err
	}
	sectorAngle := methods.SectorAngleFromCursor(apex, dirEnd, cursor)
	geoms := methods.MakeSegmentGeometries(apex, dirEnd, sectorAngle)
	props := models.SegmentProps{ApexPos: apex, DirEndPos: dirEnd, SectorAngle: sectorAngle}
	store := m.ctx.Store

	if m.sectorID == "" {
		sector := geojson.NewFeature(geoms.Sector)
		sector.Properties = props.Properties()
		ids := store.Create([]*geojson.Feature{
			sector,
			handleFeature(models.RoleArcStart, geoms.ArcStart),
			handleFeature(models.RoleArcEnd, geoms.ArcEnd),
		})
		m.sectorID, m.arcStartID, m.arcEndID = ids[0], ids[1], ids[2]
		return nil
	}

	if err := models.AssertDefined(m.arcStartID, "arcStartId"); err != nil {
		return err
	}
	if err := models.AssertDefined(m.arcEndID, "arcEndId"); err != nil {
		return err
	}
	store.UpdateGeometry([]GeometryUpdate{
		{ID: m.sectorID, Geometry: geoms.Sector},
		{ID: m.arcStartID, Geometry: geoms.ArcStart},
		{ID: m.arcEndID, Geometry: geoms.ArcEnd},
	})
	store.UpdateProperty(sectorPropertyUpdates(m.sectorID, props))
	return nil
}

func (m *SegmentMode) completeFigure() error {
	for name, id := range map[string]models.FeatureID{
		"arcStartId": m.arcStartID,
		"dirStartId": m.dirStartID,
		"arcEndId":   m.arcEndID,
		"dirEndId":   m.dirEndID,
		"sectorId":   m.sectorID,
	} {
		if err := models.AssertDefined(id, name); err != nil {
			return err
		}
	}

	finishedID := m.sectorID
	m.cleanUp(true)
	m.state = StateCommitted
	log.Printf("segment: sector %s committed", finishedID)
	m.ctx.finish(finishedID, models.FinishContext{Mode: models.SegmentMode, Action: "draw"})
	m.state = StateIdle
	return nil
}

// cleanUp 删除绘制过程中的临时要素，saveSector 为 true 时保留扇形
func (m *SegmentMode) cleanUp(saveSector bool) {
	var ids []models.FeatureID
	for _, id := range []models.FeatureID{m.dirStartID, m.dirEndID, m.directionID, m.arcStartID, m.arcEndID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if m.sectorID != "" && !saveSector {
		ids = append(ids, m.sectorID)
	}
	if len(ids) > 0 {
		m.ctx.Store.Delete(ids)
	}
	m.dirStartID, m.dirEndID, m.directionID = "", "", ""
	m.sectorID, m.arcStartID, m.arcEndID = "", "", ""
	m.state = StateIdle
}

func handleFeature(role models.HandleRole, pos orb.Point) *geojson.Feature {
	f := geojson.NewFeature(pos)
	f.Properties = models.HandleProperties(role)
	return f
}

func sectorPropertyUpdates(sectorID models.FeatureID, props models.SegmentProps) []PropertyUpdate {
	return []PropertyUpdate{
		{ID: sectorID, Property: models.PropApexPos, Value: props.ApexPos},
		{ID: sectorID, Property: models.PropDirEndPos, Value: props.DirEndPos},
		{ID: sectorID, Property: models.PropSectorAngle, Value: props.SectorAngle},
	}
}
