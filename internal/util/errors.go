package util

import "errors"

var (
	// ErrValidation 输入非法：空历史、分数越界、非法知识点ID等，不重试
	ErrValidation = errors.New("validation failed")
	// ErrKPNotFound 目标知识点不在图中（模型标签与图数据不一致）
	ErrKPNotFound = errors.New("knowledge point not found")
	// ErrDependency 图存储或资料存储调用失败，向上抛出由边界层转成 5xx
	ErrDependency = errors.New("dependency unavailable")
)
