package methods

import (
	"math"

	"github.com/paulmach/orb"
)

// NormalizeAngle 将角度规整到 [0,360)，-0 归为 0
func NormalizeAngle(alpha float64) float64 {
	beta := math.Mod(alpha, 360)
	if beta < 0 {
		beta += 360
	}
	// -1e-15 + 360 会舍入成 360
	if beta >= 360 {
		return 0
	}
	return math.Abs(beta)
}

// AngleBetween target 是否位于从 start 到 end 的弧内（不含端点）
// end < start 时跨越 0°；start == end 视为空弧
func AngleBetween(target, start, end float64) bool {
	target = NormalizeAngle(target)
	start = NormalizeAngle(start)
	end = NormalizeAngle(end)
	switch {
	case end > start:
		return target > start && target < end
	case end < start:
		return !(target >= end && target <= start)
	default:
		return false
	}
}

// SignedAngle 从向量 center→p1 转到 center→p2 扫过的角度，[0,360)
func SignedAngle(p1, center, p2 orb.Point) float64 {
	a1 := math.Atan2(p1[1]-center[1], p1[0]-center[0])
	a2 := math.Atan2(p2[1]-center[1], p2[0]-center[0])
	return NormalizeAngle(radToDeg(a2 - a1))
}

// MirroredSectorAngle 光标相对方向线的夹角关于方向线对称，张角取其两倍
// 恰好180°时走 2*a 分支
func MirroredSectorAngle(dirCursorAngle float64) float64 {
	if dirCursorAngle <= 180 {
		return NormalizeAngle(2 * dirCursorAngle)
	}
	return NormalizeAngle(2 * (360 - dirCursorAngle))
}

// BearingToAzimuth (-180,180] 方位转换为 [0,360)
func BearingToAzimuth(bearing float64) float64 {
	angle := math.Mod(bearing, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

// AzimuthToBearing [0,360) 转换为 (-180,180]
func AzimuthToBearing(azimuth float64) float64 {
	angle := math.Mod(azimuth, 360)
	if angle > 180 {
		return angle - 360
	}
	if angle < -180 {
		return angle + 360
	}
	return angle
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
