// models/draw.go
package models

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PointerEvent 地图指针事件（经纬度）
type PointerEvent struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Pos 事件位置
func (e PointerEvent) Pos() orb.Point {
	return orb.Point{e.Lng, e.Lat}
}

// KeyEvent 键盘事件
type KeyEvent struct {
	Key string `json:"key"`
}

const (
	KeyEscape = "Escape"
	KeyEnter  = "Enter"
)

// FinishContext 绘制完成回调的上下文
type FinishContext struct {
	Mode   string `json:"mode"`
	Action string `json:"action"`
}

// DrawMessage 客户端通过 WebSocket 发送的消息
type DrawMessage struct {
	Type string  `json:"type"` // "click" "mousemove" "mousedown" "mouseup" "keyup" "mode"
	Lng  float64 `json:"lng"`
	Lat  float64 `json:"lat"`
	Key  string  `json:"key,omitempty"`
	Mode string  `json:"mode,omitempty"`
}

// Pointer 转换为指针事件
func (m DrawMessage) Pointer() PointerEvent {
	return PointerEvent{Lng: m.Lng, Lat: m.Lat}
}

// DrawResponse 服务端推送的消息
type DrawResponse struct {
	Type     string                     `json:"type"`               // "ready" "change" "finish" "deleted" "error"
	MapID    string                     `json:"mapId,omitempty"`    // 地图实例
	IDs      []FeatureID                `json:"ids,omitempty"`      // 变化的要素
	Kind     string                     `json:"kind,omitempty"`     // create / update / delete
	ID       FeatureID                  `json:"id,omitempty"`       // 完成的扇形
	Features *geojson.FeatureCollection `json:"features,omitempty"` // 变化后的要素
	Message  string                     `json:"message,omitempty"`  // 消息
}
