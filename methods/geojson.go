package methods

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const epsilon = 0x1p-52

// PreciseRound 四舍五入到指定小数位
func PreciseRound(number float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round((number+epsilon)*factor) / factor
}

// RoundGeometry 输出前对坐标取整，返回副本
func RoundGeometry(g orb.Geometry, decimals int) orb.Geometry {
	if g == nil {
		return nil
	}
	if decimals < 0 {
		return orb.Clone(g)
	}
	return orb.Round(orb.Clone(g), int(math.Pow(10, float64(decimals))))
}

// MakeGeoJSON 组装要素集合，几何坐标按 decimals 取整
func MakeGeoJSON(features []*geojson.Feature, decimals int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		out := geojson.NewFeature(RoundGeometry(f.Geometry, decimals))
		out.ID = f.ID
		out.Properties = roundProperties(f.Properties, decimals)
		fc.Append(out)
	}
	return fc
}

func roundProperties(props geojson.Properties, decimals int) geojson.Properties {
	out := make(geojson.Properties, len(props))
	for key, value := range props {
		if p, ok := value.(orb.Point); ok && decimals >= 0 {
			out[key] = orb.Point{PreciseRound(p[0], decimals), PreciseRound(p[1], decimals)}
			continue
		}
		out[key] = value
	}
	return out
}
