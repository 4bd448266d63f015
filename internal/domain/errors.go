package domain

import "errors"

// 业务错误集中在这里，transport 层负责映射 HTTP 状态码：
// 校验/冲突 -> 400，凭据 -> 401，找不到 -> 404，存储 -> 500
var (
	ErrMissingFields      = errors.New("missing fields")
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("book unavailable")

	ErrRentalNotFound  = errors.New("rental not found")
	ErrAlreadyReturned = errors.New("book already returned")

	// 角色既不是 Client 也不是 Admin（数据被手工改坏时兜底）
	ErrForbidden = errors.New("forbidden")
)
