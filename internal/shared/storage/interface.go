// Package storage 定义客户端持久化状态接口
//
// 设计原则：依赖倒置 (DIP)
//   - 会话持有者只依赖 KV 接口，不知道具体实现
//   - 具体实现在子包中：file/, driver/sqlite/, redis/；内存实现在本包
//   - 初始化时通过 infra.OpenSessionStore 按配置注入
package storage

import "context"

// 持久化键，与浏览器 localStorage 中的键名一致
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// KV 字符串键值存储
//
// Get 在键不存在时返回 ErrNotFound。Delete 对不存在的键不报错。
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
