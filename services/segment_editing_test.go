package services

import (
	"testing"

	"github.com/GrainArc/SectorMap/methods"
	"github.com/GrainArc/SectorMap/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addSector 直接向存储写入一个已提交的扇形
func addSector(store *MemoryStore, apex, dirEnd orb.Point, angle float64) (models.FeatureID, models.SegmentProps) {
	props := models.SegmentProps{ApexPos: apex, DirEndPos: dirEnd, SectorAngle: angle}
	geoms := methods.MakeSegmentGeometries(apex, dirEnd, angle)
	f := geojson.NewFeature(geoms.Sector)
	f.Properties = props.Properties()
	return store.Create([]*geojson.Feature{f})[0], props
}

func sectorProps(t *testing.T, store *MemoryStore, id models.FeatureID) models.SegmentProps {
	t.Helper()
	raw, ok := store.GetPropertiesCopy(id)
	require.True(t, ok)
	props, ok := models.DecodeSegmentProps(raw)
	require.True(t, ok)
	return props
}

// cursorAt 以顶点为中心、在墨卡托平面内按方位角与半径取光标位置
func cursorAt(apex orb.Point, radius, bearing float64) orb.Point {
	return methods.ToWGS84(methods.PlanarDestination(methods.ToMercator(apex), radius, bearing))
}

func TestSegmentEditingHandles(t *testing.T) {
	store := NewMemoryStore()
	sectorID, props := addSector(store, orb.Point{0, 0}, orb.Point{1, 0}, 90)

	e, err := NewSegmentEditing(store, sectorID, props)
	require.NoError(t, err)
	assert.Equal(t, 6, store.Len())

	session, err := e.Session()
	require.NoError(t, err)
	assert.Equal(t, sectorID, session.SectorID)
	assert.Len(t, session.AuxiliaryIDs(), 5)

	want := methods.MakeSegmentGeometries(props.ApexPos, props.DirEndPos, props.SectorAngle)
	for _, role := range models.HandleRoles {
		f, ok := store.Get(session.HandleID(role))
		require.True(t, ok, role)
		got, ok := models.HandleRoleOf(f.Properties)
		require.True(t, ok)
		assert.Equal(t, role, got)
		assert.Equal(t, want.Handle(role), f.Geometry)
	}
	direction, _ := store.GetGeometryCopy(session.DirectionID)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}}, direction)
}

func TestSegmentEditingRequiresSector(t *testing.T) {
	_, err := NewSegmentEditing(NewMemoryStore(), "", models.SegmentProps{})
	assert.ErrorIs(t, err, models.ErrUndefined)
}

func TestSegmentEditingDragArcEnd(t *testing.T) {
	store := NewMemoryStore()
	apex, dirEnd := orb.Point{0, 0}, orb.Point{1, 0}
	sectorID, props := addSector(store, apex, dirEnd, 90)
	e, err := NewSegmentEditing(store, sectorID, props)
	require.NoError(t, err)
	session, _ := e.Session()

	arcEnd, ok := store.Get(session.ArcEndID)
	require.True(t, ok)
	require.True(t, e.BeginDrag(arcEnd))
	assert.Equal(t, models.RoleArcEnd, e.Dragged())

	radius := methods.PlanarDistance(methods.ToMercator(apex), methods.ToMercator(dirEnd))
	require.NoError(t, e.Drag(cursorAt(apex, radius, 200)))

	got := sectorProps(t, store, sectorID)
	assert.InDelta(t, 320, got.SectorAngle, 1e-6)
	assert.Equal(t, apex, got.ApexPos)
	assert.Equal(t, dirEnd, got.DirEndPos)

	direction, _ := store.GetGeometryCopy(session.DirectionID)
	assert.Equal(t, orb.LineString{apex, dirEnd}, direction)

	want := methods.MakeSegmentGeometries(apex, dirEnd, got.SectorAngle)
	sector, _ := store.GetGeometryCopy(sectorID)
	assert.Equal(t, want.Sector, sector)
	arcStart, _ := store.GetGeometryCopy(session.ArcStartID)
	assert.Equal(t, want.ArcStart, arcStart)

	e.EndDrag()
	assert.Empty(t, e.Dragged())
	assert.True(t, e.Active())
}

func TestSegmentEditingDragDirEnd(t *testing.T) {
	store := NewMemoryStore()
	apex := orb.Point{0, 0}
	sectorID, props := addSector(store, apex, orb.Point{1, 0}, 90)
	e, err := NewSegmentEditing(store, sectorID, props)
	require.NoError(t, err)
	session, _ := e.Session()

	dirEnd, _ := store.Get(session.DirEndID)
	require.True(t, e.BeginDrag(dirEnd))
	require.NoError(t, e.Drag(orb.Point{0, 2}))

	got := sectorProps(t, store, sectorID)
	assert.Equal(t, 90.0, got.SectorAngle)
	assert.Equal(t, apex, got.ApexPos)
	assert.Equal(t, orb.Point{0, 2}, got.DirEndPos)

	direction, _ := store.GetGeometryCopy(session.DirectionID)
	assert.Equal(t, orb.LineString{apex, {0, 2}}, direction)
	handle, _ := store.GetGeometryCopy(session.DirEndID)
	assert.Equal(t, orb.Point{0, 2}, handle)
}

func TestSegmentEditingDirStartNotDraggable(t *testing.T) {
	store := NewMemoryStore()
	sectorID, props := addSector(store, orb.Point{0, 0}, orb.Point{1, 0}, 90)
	e, err := NewSegmentEditing(store, sectorID, props)
	require.NoError(t, err)
	session, _ := e.Session()

	dirStart, _ := store.Get(session.DirStartID)
	assert.False(t, e.BeginDrag(dirStart))
	assert.False(t, e.BeginDragRole(models.RoleDirStart))
	assert.Empty(t, e.Dragged())

	before := sectorProps(t, store, sectorID)
	require.NoError(t, e.Drag(orb.Point{5, 5}))
	assert.Equal(t, before, sectorProps(t, store, sectorID))
}

func TestSegmentEditingNearestHandle(t *testing.T) {
	store := NewMemoryStore()
	sectorID, props := addSector(store, orb.Point{0, 0}, orb.Point{1, 0}, 90)
	e, err := NewSegmentEditing(store, sectorID, props)
	require.NoError(t, err)
	session, _ := e.Session()

	arcEnd, _ := store.GetGeometryCopy(session.ArcEndID)
	p := arcEnd.(orb.Point)

	for _, offset := range []float64{0, 1e-8, 1e-6, 1e-4} {
		role, ok := e.NearestHandle(orb.Point{p[0] + offset, p[1]}, DefaultHandleTolerance)
		require.True(t, ok, "offset %v", offset)
		assert.Equal(t, models.RoleArcEnd, role, "offset %v", offset)
	}

	// 约111米，超出拾取距离
	_, ok := e.NearestHandle(orb.Point{p[0] + 1e-3, p[1]}, DefaultHandleTolerance)
	assert.False(t, ok)

	// 顶点附近只有不可拖拽的 dirStart
	_, ok = e.NearestHandle(orb.Point{1e-5, 0}, DefaultHandleTolerance)
	assert.False(t, ok)

	role, ok := e.NearestHandle(orb.Point{1 + 1e-5, 0}, DefaultHandleTolerance)
	require.True(t, ok)
	assert.Equal(t, models.RoleDirEnd, role)

	e.Destroy()
	_, ok = e.NearestHandle(p, DefaultHandleTolerance)
	assert.False(t, ok)
}

func TestSegmentEditingBeginDragForeignFeature(t *testing.T) {
	store := NewMemoryStore()
	sectorID, props := addSector(store, orb.Point{0, 0}, orb.Point{1, 0}, 90)
	e, err := NewSegmentEditing(store, sectorID, props)
	require.NoError(t, err)

	sector, _ := store.Get(sectorID)
	assert.False(t, e.BeginDrag(sector))
	assert.False(t, e.BeginDrag(nil))

	stray := geojson.NewFeature(orb.Point{0, 0})
	stray.ID = "other"
	stray.Properties = models.HandleProperties(models.RoleArcEnd)
	assert.False(t, e.BeginDrag(stray))
}

func TestSegmentEditingDestroy(t *testing.T) {
	store := NewMemoryStore()
	sectorID, props := addSector(store, orb.Point{0, 0}, orb.Point{1, 0}, 90)
	e, err := NewSegmentEditing(store, sectorID, props)
	require.NoError(t, err)

	e.Destroy()
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Has(sectorID))
	assert.False(t, e.Active())

	_, err = e.Session()
	assert.ErrorIs(t, err, models.ErrUndefined)
	assert.ErrorIs(t, e.UpdateByArc(orb.Point{0, 1}), models.ErrUndefined)
	assert.ErrorIs(t, e.UpdateByDirEnd(orb.Point{0, 1}), models.ErrUndefined)

	e.Destroy()
	assert.Equal(t, 1, store.Len())
}
