// Package infra 基础设施聚合层
//
// 按配置初始化控制台依赖的外部资源：
//   - Session：本地会话键值存储（file/sqlite/redis/memory）
//   - Objects：截图来源对象存储（MinIO，可选）
package infra

import (
	"errors"
	"fmt"

	"research-admin/internal/attachment"
	"research-admin/internal/config"
	objstore "research-admin/internal/shared/minio"
	"research-admin/internal/shared/storage"
	sqlitestore "research-admin/internal/shared/storage/driver/sqlite"
	filestore "research-admin/internal/shared/storage/file"
	redisstore "research-admin/internal/shared/storage/redis"
	"research-admin/pkg/logging"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Session 会话存储（token + user 快照）
	Session storage.KV

	// Objects MinIO 客户端，未配置时为 nil
	Objects *objstore.Client

	// Attachments 截图解析器，Objects 为 nil 时只支持本地文件
	Attachments *attachment.Resolver
}

// New 按配置初始化全部基础设施
func New(cfg *config.Config, logger *logging.Logger) (*Infrastructure, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	kv, err := OpenSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("session store opened", "driver", cfg.Session.Driver)

	inf := &Infrastructure{Session: kv}
	if cfg.MinIO.Endpoint != "" {
		objects, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			// 截图只是可选来源，失败时降级为仅本地文件
			logger.WithError(err).Warn("minio unavailable, s3:// attachments disabled")
		} else {
			inf.Objects = objects
		}
	}
	inf.Attachments = newResolver(inf.Objects)
	return inf, nil
}

// OpenSessionStore 根据 session.driver 打开会话存储
func OpenSessionStore(cfg *config.Config) (storage.KV, error) {
	switch cfg.Session.Driver {
	case config.SessionDriverMemory:
		return storage.NewMemoryKV(), nil
	case config.SessionDriverSQLite:
		s, err := sqlitestore.New(cfg.Session.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return s, nil
	case config.SessionDriverRedis:
		if cfg.Redis.URL == "" {
			return nil, errors.New("session driver redis requires REDIS_URL")
		}
		s, err := redisstore.NewStoreFromURL(cfg.Redis.URL, cfg.Redis.Password, cfg.Session.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		return s, nil
	case config.SessionDriverFile, "":
		s, err := filestore.New(cfg.Session.Path, filestore.WithSecret(cfg.Session.Secret))
		if err != nil {
			return nil, fmt.Errorf("open session file: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
}

// newResolver 避免把 nil *Client 包装成非 nil 接口
func newResolver(objects *objstore.Client) *attachment.Resolver {
	if objects == nil {
		return attachment.NewResolver(nil)
	}
	return attachment.NewResolver(objects)
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	if i.Session != nil {
		return i.Session.Close()
	}
	return nil
}
