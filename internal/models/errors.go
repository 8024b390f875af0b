package models

import "errors"

var (
	// ErrRunNotFound 分析运行不存在错误
	ErrRunNotFound = errors.New("analysis run not found")

	// ErrInvalidRunStatus 无效的运行状态错误
	ErrInvalidRunStatus = errors.New("invalid run status")
)
