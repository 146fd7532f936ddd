package methods

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// ToMercator EPSG:4326 转 EPSG:3857
func ToMercator(p orb.Point) orb.Point {
	return project.Point(p, project.WGS84.ToMercator)
}

// ToWGS84 EPSG:3857 转 EPSG:4326
func ToWGS84(p orb.Point) orb.Point {
	return project.Point(p, project.Mercator.ToWGS84)
}

// PlanarDistance 平面直角坐标距离
func PlanarDistance(p1, p2 orb.Point) float64 {
	return planar.Distance(p1, p2)
}

// PlanarBearing p1 指向 p2 的方位，x轴正向为0，范围 (-180,180]
// 两点重合时返回0
func PlanarBearing(p1, p2 orb.Point) float64 {
	dx := p2[0] - p1[0]
	dy := p2[1] - p1[1]
	if dx == 0 && dy == 0 {
		return 0
	}
	angle := radToDeg(math.Atan2(dy, dx))
	if angle > 180 {
		angle -= 360
	} else if angle <= -180 {
		angle += 360
	}
	return angle
}

// PlanarDestination 从 origin 沿 bearing 前进 distance 后的点
func PlanarDestination(origin orb.Point, distance, bearing float64) orb.Point {
	rad := degToRad(bearing)
	return orb.Point{
		origin[0] + distance*math.Cos(rad),
		origin[1] + distance*math.Sin(rad),
	}
}
