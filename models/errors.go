package models

import (
	"errors"
	"fmt"
)

// ErrUndefined 前置条件不满足：调用时序错误导致所需的ID或几何不存在
var ErrUndefined = errors.New("value must be defined")

// AssertDefined 检查要素ID是否已定义
func AssertDefined(id FeatureID, name string) error {
	if id == "" {
		return fmt.Errorf("%s: %w", name, ErrUndefined)
	}
	return nil
}
