// services/feature_store.go
package services

import (
	"log"
	"sync"

	"github.com/GrainArc/SectorMap/models"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// GeometryUpdate 几何更新
type GeometryUpdate struct {
	ID       models.FeatureID
	Geometry orb.Geometry
}

// PropertyUpdate 单个属性更新
type PropertyUpdate struct {
	ID       models.FeatureID
	Property string
	Value    interface{}
}

// FeatureStore 绘制模式使用的要素存储接口
type FeatureStore interface {
	Create(features []*geojson.Feature) []models.FeatureID
	Delete(ids []models.FeatureID)
	UpdateGeometry(updates []GeometryUpdate)
	UpdateProperty(updates []PropertyUpdate)
	GetGeometryCopy(id models.FeatureID) (orb.Geometry, bool)
	GetPropertiesCopy(id models.FeatureID) (geojson.Properties, bool)
	Search(query orb.Geometry) []*geojson.Feature
}

// ChangeKind 存储变化类型
type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeListener 存储变化回调
type ChangeListener func(ids []models.FeatureID, kind ChangeKind)

// MemoryStore 内存要素存储
// 回调在释放锁之后触发，回调中可以再读存储
type MemoryStore struct {
	mu        sync.RWMutex
	features  map[models.FeatureID]*geojson.Feature
	order     []models.FeatureID
	listeners []ChangeListener
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		features: make(map[models.FeatureID]*geojson.Feature),
	}
}

// OnChange 注册变化回调
func (s *MemoryStore) OnChange(listener ChangeListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

func (s *MemoryStore) notify(ids []models.FeatureID, kind ChangeKind) {
	if len(ids) == 0 {
		return
	}
	s.mu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(ids, kind)
	}
}

func (s *MemoryStore) Create(features []*geojson.Feature) []models.FeatureID {
	ids := make([]models.FeatureID, 0, len(features))
	s.mu.Lock()
	for _, f := range features {
		id := uuid.NewString()
		stored := geojson.NewFeature(orb.Clone(f.Geometry))
		stored.ID = id
		stored.Properties = f.Properties.Clone()
		if stored.Properties == nil {
			stored.Properties = geojson.Properties{}
		}
		s.features[id] = stored
		s.order = append(s.order, id)
		ids = append(ids, id)
	}
	s.mu.Unlock()
	s.notify(ids, ChangeCreate)
	return ids
}

func (s *MemoryStore) Delete(ids []models.FeatureID) {
	var deleted []models.FeatureID
	s.mu.Lock()
	for _, id := range ids {
		if _, ok := s.features[id]; !ok {
			log.Printf("delete: feature %s not found", id)
			continue
		}
		delete(s.features, id)
		deleted = append(deleted, id)
	}
	if len(deleted) > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if _, ok := s.features[id]; ok {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
	s.mu.Unlock()
	s.notify(deleted, ChangeDelete)
}

func (s *MemoryStore) UpdateGeometry(updates []GeometryUpdate) {
	var updated []models.FeatureID
	s.mu.Lock()
	for _, u := range updates {
		f, ok := s.features[u.ID]
		if !ok {
			log.Printf("updateGeometry: feature %s not found", u.ID)
			continue
		}
		f.Geometry = orb.Clone(u.Geometry)
		updated = append(updated, u.ID)
	}
	s.mu.Unlock()
	s.notify(updated, ChangeUpdate)
}

func (s *MemoryStore) UpdateProperty(updates []PropertyUpdate) {
	var updated []models.FeatureID
	s.mu.Lock()
	for _, u := range updates {
		f, ok := s.features[u.ID]
		if !ok {
			log.Printf("updateProperty: feature %s not found", u.ID)
			continue
		}
		f.Properties[u.Property] = u.Value
		updated = append(updated, u.ID)
	}
	s.mu.Unlock()
	s.notify(uniqueIDs(updated), ChangeUpdate)
}

func (s *MemoryStore) GetGeometryCopy(id models.FeatureID) (orb.Geometry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	if !ok {
		return nil, false
	}
	return orb.Clone(f.Geometry), true
}

func (s *MemoryStore) GetPropertiesCopy(id models.FeatureID) (geojson.Properties, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	if !ok {
		return nil, false
	}
	return f.Properties.Clone(), true
}

// Get 返回要素副本
func (s *MemoryStore) Get(id models.FeatureID) (*geojson.Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	if !ok {
		return nil, false
	}
	return cloneFeature(f), true
}

// Has 要素是否存在
func (s *MemoryStore) Has(id models.FeatureID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.features[id]
	return ok
}

// Len 要素数量
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.features)
}

// All 按创建顺序返回全部要素副本
func (s *MemoryStore) All() []*geojson.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*geojson.Feature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneFeature(s.features[id]))
	}
	return out
}

// Search 返回与查询几何外包框相交的要素，后创建的（绘制在上层的）排在前面
func (s *MemoryStore) Search(query orb.Geometry) []*geojson.Feature {
	if query == nil {
		return nil
	}
	bound := query.Bound()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hits []*geojson.Feature
	for i := len(s.order) - 1; i >= 0; i-- {
		f := s.features[s.order[i]]
		if hitTest(f.Geometry, bound) {
			hits = append(hits, cloneFeature(f))
		}
	}
	return hits
}

// hitTest 几何是否与查询框相交（点击查询框近似为零面积）
func hitTest(g orb.Geometry, bound orb.Bound) bool {
	if g == nil || !g.Bound().Intersects(bound) {
		return false
	}
	center := bound.Center()
	tolerance := planar.Distance(bound.Min, bound.Max) / 2
	switch g := g.(type) {
	case orb.Point:
		return bound.Contains(g)
	case orb.LineString:
		return lineHit(g, center, tolerance)
	case orb.Ring:
		return planar.RingContains(g, center) || lineHit(orb.LineString(g), center, tolerance)
	case orb.Polygon:
		if planar.PolygonContains(g, center) {
			return true
		}
		for _, r := range g {
			if lineHit(orb.LineString(r), center, tolerance) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func lineHit(ls orb.LineString, p orb.Point, tolerance float64) bool {
	if len(ls) == 1 {
		return planar.Distance(ls[0], p) <= tolerance
	}
	for i := 1; i < len(ls); i++ {
		if planar.DistanceFromSegment(ls[i-1], ls[i], p) <= tolerance {
			return true
		}
	}
	return false
}

func cloneFeature(f *geojson.Feature) *geojson.Feature {
	out := geojson.NewFeature(orb.Clone(f.Geometry))
	out.ID = f.ID
	out.Properties = f.Properties.Clone()
	return out
}

func uniqueIDs(ids []models.FeatureID) []models.FeatureID {
	seen := make(map[models.FeatureID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
