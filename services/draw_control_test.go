package services

import (
	"testing"

	"github.com/GrainArc/SectorMap/models"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controlRecorder struct {
	ready    int
	changes  map[ChangeKind]int
	deleted  [][]models.FeatureID
	finished []models.FeatureID
	cursors  []string
}

func newTestControl() (*DrawControl, *controlRecorder) {
	rec := &controlRecorder{changes: map[ChangeKind]int{}}
	c := NewDrawControl(nil, ControlOptions{
		OnChange:         func(ids []models.FeatureID, kind ChangeKind) { rec.changes[kind]++ },
		OnReady:          func() { rec.ready++ },
		OnFeatureDeleted: func(ids []models.FeatureID) { rec.deleted = append(rec.deleted, ids) },
		OnFinish: func(id models.FeatureID, _ models.FinishContext) {
			rec.finished = append(rec.finished, id)
		},
		SetCursor: func(cursor string) { rec.cursors = append(rec.cursors, cursor) },
	})
	return c, rec
}

func TestDrawControlNotStarted(t *testing.T) {
	c, rec := newTestControl()
	assert.False(t, c.Ready())
	assert.ErrorIs(t, c.Click(at(0, 0)), models.ErrUndefined)
	_, err := c.PointerDown(at(0, 0))
	assert.ErrorIs(t, err, models.ErrUndefined)
	assert.Equal(t, 0, rec.ready)
}

func TestDrawControlLifecycle(t *testing.T) {
	c, rec := newTestControl()
	c.Start()
	assert.True(t, c.Ready())
	assert.Equal(t, 1, rec.ready)
	assert.Equal(t, SelectModeName, c.Mode())

	assert.Error(t, c.SetMode("polygon"))
	require.NoError(t, c.SetMode(models.SegmentMode))
	assert.Equal(t, models.SegmentMode, c.Mode())
	assert.Equal(t, []string{"pointer", "unset", "crosshair"}, rec.cursors)

	// 绘制一个扇形
	require.NoError(t, c.Click(at(0, 0)))
	require.NoError(t, c.PointerMove(at(1, 0)))
	require.NoError(t, c.Click(at(1, 0)))
	require.NoError(t, c.PointerMove(at(1, 1)))
	require.NoError(t, c.Click(at(1, 1)))

	require.Len(t, rec.finished, 1)
	sectorID := rec.finished[0]
	assert.Len(t, c.Features(), 1)
	assert.Greater(t, rec.changes[ChangeCreate], 0)
	assert.Greater(t, rec.changes[ChangeUpdate], 0)
	assert.Greater(t, rec.changes[ChangeDelete], 0)

	// 切回选择模式并拖拽圆弧端点
	require.NoError(t, c.SetMode(SelectModeName))
	require.NoError(t, c.Click(at(0.5, 0.1)))
	editing := c.Select().Editing()
	require.NotNil(t, editing)
	session, _ := editing.Session()
	handle, _ := c.Store().GetGeometryCopy(session.ArcStartID)
	p := handle.(orb.Point)

	handled, err := c.PointerDown(at(p[0], p[1]))
	require.NoError(t, err)
	assert.True(t, handled)
	require.NoError(t, c.PointerMove(at(0, -1)))
	require.NoError(t, c.PointerUp(at(0, -1)))
	assert.InDelta(t, 180, sectorProps(t, c.Store(), sectorID).SectorAngle, 1e-6)

	// 删除正在编辑的扇形
	c.DeleteFeatures([]models.FeatureID{sectorID, "missing"})
	assert.Nil(t, c.Select().Editing())
	assert.Empty(t, c.Features())
	require.Len(t, rec.deleted, 1)
	assert.Equal(t, []models.FeatureID{sectorID}, rec.deleted[0])
}

func TestDrawControlSwitchModeAbortsCreation(t *testing.T) {
	c, rec := newTestControl()
	c.Start()
	require.NoError(t, c.SetMode(models.SegmentMode))
	require.NoError(t, c.Click(at(0, 0)))
	require.NoError(t, c.Click(at(1, 0)))
	require.NoError(t, c.PointerMove(at(1, 1)))
	assert.Len(t, c.Features(), 6)

	require.NoError(t, c.SetMode(SelectModeName))
	assert.Empty(t, c.Features())
	assert.Empty(t, rec.finished)
	assert.Equal(t, StateIdle, c.Segment().State())
}

func TestDrawControlKeyUp(t *testing.T) {
	c, _ := newTestControl()
	c.Start()
	require.NoError(t, c.SetMode(models.SegmentMode))
	require.NoError(t, c.Click(at(0, 0)))
	require.NoError(t, c.KeyUp(models.KeyEvent{Key: models.KeyEscape}))
	assert.Empty(t, c.Features())
}

func TestDrawControlDeleteUnknown(t *testing.T) {
	c, rec := newTestControl()
	c.Start()
	c.DeleteFeatures([]models.FeatureID{"missing"})
	assert.Empty(t, rec.deleted)
}

func TestMapRegistry(t *testing.T) {
	r := NewMapRegistry()
	build := func(string) *DrawControl { return NewDrawControl(nil, ControlOptions{}) }

	id, c, created := r.Create("", build)
	assert.NotEmpty(t, id)
	assert.True(t, created)

	again, c2, created := r.Create(id, build)
	assert.Equal(t, id, again)
	assert.False(t, created)
	assert.Same(t, c, c2)

	_, other, _ := r.Create("second", build)
	assert.NotSame(t, c, other)
	assert.ElementsMatch(t, []string{id, "second"}, r.IDs())

	got, ok := r.Get("second")
	require.True(t, ok)
	assert.Same(t, other, got)

	r.Remove("second")
	_, ok = r.Get("second")
	assert.False(t, ok)
}
