package services

import (
	"sync"

	"github.com/google/uuid"
)

// MapRegistry 多个地图实例各自独立的绘制上下文
type MapRegistry struct {
	maps sync.Map // mapID -> *DrawControl
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{}
}

// Get 查找地图
func (r *MapRegistry) Get(mapID string) (*DrawControl, bool) {
	v, ok := r.maps.Load(mapID)
	if !ok {
		return nil, false
	}
	return v.(*DrawControl), true
}

// Create 注册新地图，mapID为空时自动生成
// 同名地图已存在时返回已有实例与false
func (r *MapRegistry) Create(mapID string, build func(mapID string) *DrawControl) (string, *DrawControl, bool) {
	if mapID == "" {
		mapID = uuid.NewString()
	}
	if existing, ok := r.Get(mapID); ok {
		return mapID, existing, false
	}
	actual, loaded := r.maps.LoadOrStore(mapID, build(mapID))
	return mapID, actual.(*DrawControl), !loaded
}

// Remove 注销地图
func (r *MapRegistry) Remove(mapID string) {
	r.maps.Delete(mapID)
}

// IDs 全部地图ID
func (r *MapRegistry) IDs() []string {
	var ids []string
	r.maps.Range(func(key, _ interface{}) bool {
		ids = append(ids, key.(string))
		return true
	})
	return ids
}
