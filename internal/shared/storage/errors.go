// Package storage 定义客户端持久化状态的领域错误
//
// 各驱动实现（file / sqlite / redis / memory）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 键不存在
	// 替代 sql.ErrNoRows / redis.Nil / fs.ErrNotExist
	ErrNotFound = errors.New("key not found")

	// ErrSealed 会话文件已加密，但密钥缺失或不匹配
	ErrSealed = errors.New("sealed: cannot open session state with the configured secret")

	// ErrClosed 存储已关闭
	ErrClosed = errors.New("store closed")
)
