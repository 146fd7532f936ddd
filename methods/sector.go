package methods

import (
	"github.com/GrainArc/SectorMap/models"
	"github.com/paulmach/orb"
)

// MakeSegmentGeometries 根据顶点、方向终点和张角生成扇形多边形、方向线及四个控制点
// 计算在墨卡托平面内进行，中间结果不做取整
func MakeSegmentGeometries(apex, dirEnd orb.Point, sectorAngle float64) models.SegmentGeometries {
	mApex := ToMercator(apex)
	mDirEnd := ToMercator(dirEnd)

	dirAzimuth := BearingToAzimuth(PlanarBearing(mApex, mDirEnd))
	radius := PlanarDistance(mApex, mDirEnd)

	arcPos := func(azimuth float64) orb.Point {
		return ToWGS84(PlanarDestination(mApex, radius, AzimuthToBearing(azimuth)))
	}

	arcStartAzimuth := NormalizeAngle(dirAzimuth - sectorAngle/2)
	arcEndAzimuth := NormalizeAngle(dirAzimuth + sectorAngle/2)
	arcStart := arcPos(arcStartAzimuth)
	arcEnd := arcPos(arcEndAzimuth)

	ring := make(orb.Ring, 0, models.SectorsCount+4)
	ring = append(ring, arcStart, apex, arcEnd)

	// 步长累积误差可能越过 arcStart，越界的点直接丢弃
	step := sectorAngle / models.SectorsCount
	for i := 1; i <= models.SectorsCount; i++ {
		azimuth := NormalizeAngle(arcEndAzimuth - step*float64(i))
		if AngleBetween(azimuth, arcStartAzimuth, arcEndAzimuth) {
			ring = append(ring, arcPos(azimuth))
		}
	}
	ring = append(ring, arcStart)

	return models.SegmentGeometries{
		Sector:    orb.Polygon{ring},
		Direction: orb.LineString{apex, dirEnd},
		DirStart:  apex,
		DirEnd:    dirEnd,
		ArcStart:  arcStart,
		ArcEnd:    arcEnd,
	}
}

// SectorAngleFromCursor 由光标位置推算张角：光标与方向线的夹角关于方向线对称取两倍
func SectorAngleFromCursor(apex, dirEnd, cursor orb.Point) float64 {
	dirCursorAngle := SignedAngle(ToMercator(dirEnd), ToMercator(apex), ToMercator(cursor))
	return MirroredSectorAngle(dirCursorAngle)
}

// TessellationCount 多边形中圆弧内部细分点的数量
func TessellationCount(sector orb.Polygon) int {
	if len(sector) == 0 {
		return 0
	}
	// arcStart, apex, arcEnd ... arcStart
	n := len(sector[0]) - 4
	if n < 0 {
		return 0
	}
	return n
}
