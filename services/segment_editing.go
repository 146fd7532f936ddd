// services/segment_editing.go
package services

import (
	"fmt"

	"github.com/GrainArc/SectorMap/methods"
	"github.com/GrainArc/SectorMap/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SegmentEditing 已提交扇形的编辑会话：生成可拖拽的控制点并在拖拽时重算几何
// 由 SelectMode 持有，保证同一地图最多一个
type SegmentEditing struct {
	store   FeatureStore
	data    *models.EditSession
	dragged models.HandleRole
}

// NewSegmentEditing 为扇形创建方向线与四个控制点
func NewSegmentEditing(store FeatureStore, sectorID models.FeatureID, props models.SegmentProps) (*SegmentEditing, error) {
	if err := models.AssertDefined(sectorID, "sectorId"); err != nil {
		return nil, err
	}
	e := &SegmentEditing{store: store}
	e.createSegmentFeatures(sectorID, props)
	return e, nil
}

func (e *SegmentEditing) createSegmentFeatures(sectorID models.FeatureID, props models.SegmentProps) {
	geoms := methods.MakeSegmentGeometries(props.ApexPos, props.DirEndPos, props.SectorAngle)

	features := make([]*geojson.Feature, 0, len(models.HandleRoles)+1)
	for _, role := range models.HandleRoles {
		features = append(features, handleFeature(role, geoms.Handle(role)))
	}
	direction := geojson.NewFeature(geoms.Direction)
	direction.Properties = models.AuxiliaryProperties()
	features = append(features, direction)

	ids := e.store.Create(features)

	data := &models.EditSession{SectorID: sectorID}
	for i, role := range models.HandleRoles {
		data.SetHandleID(role, ids[i])
	}
	data.DirectionID = ids[len(ids)-1]
	e.data = data
}

// Session 当前会话的要素ID，会话销毁后返回错误
func (e *SegmentEditing) Session() (models.EditSession, error) {
	if e.data == nil {
		return models.EditSession{}, fmt.Errorf("segment editing session: %w", models.ErrUndefined)
	}
	return *e.data, nil
}

// SectorID 正在编辑的扇形
func (e *SegmentEditing) SectorID() models.FeatureID {
	if e.data == nil {
		return ""
	}
	return e.data.SectorID
}

// Active 会话是否仍然有效
func (e *SegmentEditing) Active() bool {
	return e.data != nil
}

// Owns 要素是否为本会话的控制要素
func (e *SegmentEditing) Owns(id models.FeatureID) bool {
	return e.data != nil && e.data.Owns(id)
}

// Dragged 正在拖拽的控制点角色，未拖拽时为空
func (e *SegmentEditing) Dragged() models.HandleRole {
	return e.dragged
}

// Destroy 删除控制点与方向线，扇形本身保留
func (e *SegmentEditing) Destroy() {
	if e.data == nil {
		return
	}
	e.store.Delete(e.data.AuxiliaryIDs())
	e.data = nil
	e.dragged = ""
}

// BeginDrag 按下的要素若是本会话的可拖拽控制点，则记录为拖拽对象
func (e *SegmentEditing) BeginDrag(feature *geojson.Feature) bool {
	if e.data == nil || feature == nil {
		return false
	}
	id, _ := feature.ID.(string)
	if !e.data.Owns(id) {
		return false
	}
	role, ok := models.HandleRoleOf(feature.Properties)
	if !ok {
		return false
	}
	return e.BeginDragRole(role)
}

// BeginDragRole 按角色开始拖拽
func (e *SegmentEditing) BeginDragRole(role models.HandleRole) bool {
	if e.data == nil || !role.Draggable() {
		return false
	}
	e.dragged = role
	return true
}

// NearestHandle 墨卡托平面内距光标最近且不超过 tolerance（米）的可拖拽控制点
func (e *SegmentEditing) NearestHandle(cursor orb.Point, tolerance float64) (models.HandleRole, bool) {
	if e.data == nil {
		return "", false
	}
	mCursor := methods.ToMercator(cursor)
	var nearest models.HandleRole
	best := tolerance
	found := false
	for _, role := range models.HandleRoles {
		if !role.Draggable() {
			continue
		}
		g, ok := e.store.GetGeometryCopy(e.data.HandleID(role))
		p, isPoint := g.(orb.Point)
		if !ok || !isPoint {
			continue
		}
		d := methods.PlanarDistance(mCursor, methods.ToMercator(p))
		if d <= best && (!found || d < best) {
			nearest, best, found = role, d, true
		}
	}
	return nearest, found
}

// EndDrag 松开指针，会话保留
func (e *SegmentEditing) EndDrag() {
	e.dragged = ""
}

// Drag 按拖拽的控制点角色更新扇形
func (e *SegmentEditing) Drag(cursor orb.Point) error {
	switch e.dragged {
	case models.RoleDirEnd:
		return e.UpdateByDirEnd(cursor)
	case models.RoleArcStart, models.RoleArcEnd:
		return e.UpdateByArc(cursor)
	}
	return nil
}

// UpdateByDirEnd 移动方向终点：半径与方向改变，张角保持
func (e *SegmentEditing) UpdateByDirEnd(cursor orb.Point) error {
	if e.data == nil {
		return fmt.Errorf("update by dirEnd: %w", models.ErrUndefined)
	}
	apex, _, err := e.direction()
	if err != nil {
		return err
	}
	raw, ok := e.store.GetPropertiesCopy(e.data.SectorID)
	if !ok {
		return fmt.Errorf("sector %s properties: %w", e.data.SectorID, models.ErrUndefined)
	}
	props, ok := models.DecodeSegmentProps(raw)
	if !ok {
		return fmt.Errorf("sector %s has no segment properties: %w", e.data.SectorID, models.ErrUndefined)
	}

	geoms := methods.MakeSegmentGeometries(apex, cursor, props.SectorAngle)
	return e.update(geoms, props.SectorAngle)
}

// UpdateByArc 移动圆弧端点：顶点与方向终点不变，张角由光标推算
func (e *SegmentEditing) UpdateByArc(cursor orb.Point) error {
	if e.data == nil {
		return fmt.Errorf("update by arc: %w", models.ErrUndefined)
	}
	apex, dirEnd, err := e.direction()
	if err != nil {
		return err
	}
	sectorAngle := methods.SectorAngleFromCursor(apex, dirEnd, cursor)
	geoms := methods.MakeSegmentGeometries(apex, dirEnd, sectorAngle)
	return e.update(geoms, sectorAngle)
}

func (e *SegmentEditing) direction() (orb.Point, orb.Point, error) {
	g, ok := e.store.GetGeometryCopy(e.data.DirectionID)
	line, isLine := g.(orb.LineString)
	if !ok || !isLine || len(line) != 2 {
		return orb.Point{}, orb.Point{}, fmt.Errorf("direction geometry %s: %w", e.data.DirectionID, models.ErrUndefined)
	}
	return line[0], line[1], nil
}

func (e *SegmentEditing) update(geoms models.SegmentGeometries, sectorAngle float64) error {
	if e.data == nil {
		return fmt.Errorf("segment editing update: %w", models.ErrUndefined)
	}
	d := e.data
	e.store.UpdateGeometry([]GeometryUpdate{
		{ID: d.SectorID, Geometry: geoms.Sector},
		{ID: d.DirectionID, Geometry: geoms.Direction},
		{ID: d.DirStartID, Geometry: geoms.DirStart},
		{ID: d.DirEndID, Geometry: geoms.DirEnd},
		{ID: d.ArcStartID, Geometry: geoms.ArcStart},
		{ID: d.ArcEndID, Geometry: geoms.ArcEnd},
	})
	e.store.UpdateProperty(sectorPropertyUpdates(d.SectorID, models.SegmentProps{
		ApexPos:     geoms.DirStart,
		DirEndPos:   geoms.DirEnd,
		SectorAngle: sectorAngle,
	}))
	return nil
}
