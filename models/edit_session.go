package models

// models/edit_session.go

// EditSession 扇形编辑会话，记录被选中扇形及其全部控制要素的ID
// 同一地图同一时刻最多存在一个会话
type EditSession struct {
	SectorID    FeatureID
	DirectionID FeatureID
	DirStartID  FeatureID
	DirEndID    FeatureID
	ArcStartID  FeatureID
	ArcEndID    FeatureID
}

// HandleID 按控制点角色返回对应要素ID
func (s *EditSession) HandleID(role HandleRole) FeatureID {
	switch role {
	case RoleDirStart:
		return s.DirStartID
	case RoleDirEnd:
		return s.DirEndID
	case RoleArcStart:
		return s.ArcStartID
	case RoleArcEnd:
		return s.ArcEndID
	}
	return ""
}

// SetHandleID 记录控制点要素ID
func (s *EditSession) SetHandleID(role HandleRole, id FeatureID) {
	switch role {
	case RoleDirStart:
		s.DirStartID = id
	case RoleDirEnd:
		s.DirEndID = id
	case RoleArcStart:
		s.ArcStartID = id
	case RoleArcEnd:
		s.ArcEndID = id
	}
}

// AuxiliaryIDs 除扇形本身以外的全部要素（方向线 + 四个控制点）
func (s *EditSession) AuxiliaryIDs() []FeatureID {
	var ids []FeatureID
	for _, id := range []FeatureID{s.DirectionID, s.DirStartID, s.DirEndID, s.ArcStartID, s.ArcEndID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Owns 判断要素是否属于该会话的辅助要素
func (s *EditSession) Owns(id FeatureID) bool {
	if id == "" {
		return false
	}
	for _, aux := range s.AuxiliaryIDs() {
		if aux == id {
			return true
		}
	}
	return false
}
