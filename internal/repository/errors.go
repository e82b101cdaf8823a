package repository

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")

	// ErrConflict 条件更新前置条件不满足（status 守卫失败）
	// 两个参与者并发操作同一捐赠时，后到者收到该错误而不是静默覆盖
	ErrConflict = errors.New("status precondition failed")
)
