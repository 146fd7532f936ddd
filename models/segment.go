package models

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureID 要素存储中的要素ID（uuid字符串）
type FeatureID = string

// SegmentMode 扇形要素的标签，同时也是绘制模式名称
const SegmentMode = "segment"

// SectorsCount 圆弧最多细分的点数
const SectorsCount = 64

// 要素属性字段
const (
	PropTag         = "tag"
	PropApexPos     = "apexPos"
	PropDirEndPos   = "dirEndPos"
	PropSectorAngle = "sectorAngleDeg"
	PropHandleRole  = "handleRole"
	PropCreating    = "creating"
	PropSelected    = "selected"
)

// HandleRole 控制点角色
type HandleRole string

const (
	RoleDirStart HandleRole = "dirStart"
	RoleDirEnd   HandleRole = "dirEnd"
	RoleArcStart HandleRole = "arcStart"
	RoleArcEnd   HandleRole = "arcEnd"
)

// HandleRoles 控制点的创建顺序
var HandleRoles = []HandleRole{RoleDirStart, RoleArcStart, RoleDirEnd, RoleArcEnd}

// Valid 是否为已知角色
func (r HandleRole) Valid() bool {
	switch r {
	case RoleDirStart, RoleDirEnd, RoleArcStart, RoleArcEnd:
		return true
	}
	return false
}

// Draggable 编辑时可拖拽的控制点，顶点不可移动
func (r HandleRole) Draggable() bool {
	switch r {
	case RoleDirEnd, RoleArcStart, RoleArcEnd:
		return true
	}
	return false
}

// SegmentProps 已提交扇形的属性
type SegmentProps struct {
	ApexPos     orb.Point `json:"apexPos"`
	DirEndPos   orb.Point `json:"dirEndPos"`
	SectorAngle float64   `json:"sectorAngleDeg"`
}

// Properties 转换为要素属性
func (p SegmentProps) Properties() geojson.Properties {
	return geojson.Properties{
		PropTag:         SegmentMode,
		PropApexPos:     p.ApexPos,
		PropDirEndPos:   p.DirEndPos,
		PropSectorAngle: p.SectorAngle,
	}
}

type segmentPropsWire struct {
	Tag         *string    `json:"tag"`
	ApexPos     *orb.Point `json:"apexPos"`
	DirEndPos   *orb.Point `json:"dirEndPos"`
	SectorAngle *float64   `json:"sectorAngleDeg"`
	HandleRole  *string    `json:"handleRole"`
}

// DecodeSegmentProps 尝试将要素属性解析为扇形属性
// 解析失败只表示"不是扇形"，不是错误
func DecodeSegmentProps(props geojson.Properties) (SegmentProps, bool) {
	if props == nil {
		return SegmentProps{}, false
	}
	data, err := json.Marshal(props)
	if err != nil {
		return SegmentProps{}, false
	}
	var wire segmentPropsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return SegmentProps{}, false
	}
	if wire.Tag == nil || *wire.Tag != SegmentMode || wire.HandleRole != nil {
		return SegmentProps{}, false
	}
	if wire.ApexPos == nil || wire.DirEndPos == nil || wire.SectorAngle == nil {
		return SegmentProps{}, false
	}
	return SegmentProps{
		ApexPos:     *wire.ApexPos,
		DirEndPos:   *wire.DirEndPos,
		SectorAngle: *wire.SectorAngle,
	}, true
}

// HandleRoleOf 读取控制点角色，非控制点返回false
func HandleRoleOf(props geojson.Properties) (HandleRole, bool) {
	if props == nil {
		return "", false
	}
	var role HandleRole
	switch v := props[PropHandleRole].(type) {
	case HandleRole:
		role = v
	case string:
		role = HandleRole(v)
	default:
		return "", false
	}
	return role, role.Valid()
}

// HandleProperties 控制点要素的属性
func HandleProperties(role HandleRole) geojson.Properties {
	return geojson.Properties{
		PropTag:        SegmentMode,
		PropHandleRole: string(role),
	}
}

// AuxiliaryProperties 绘制过程中临时要素的属性
func AuxiliaryProperties() geojson.Properties {
	return geojson.Properties{
		PropTag: SegmentMode,
	}
}

// SegmentGeometries 由顶点、方向终点和张角生成的全部几何
type SegmentGeometries struct {
	Sector    orb.Polygon
	Direction orb.LineString
	DirStart  orb.Point
	DirEnd    orb.Point
	ArcStart  orb.Point
	ArcEnd    orb.Point
}

// Handle 按角色取控制点几何
func (g SegmentGeometries) Handle(role HandleRole) orb.Point {
	switch role {
	case RoleDirStart:
		return g.DirStart
	case RoleDirEnd:
		return g.DirEnd
	case RoleArcStart:
		return g.ArcStart
	case RoleArcEnd:
		return g.ArcEnd
	}
	return orb.Point{}
}
