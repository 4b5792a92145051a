// Package attachment 解析待上传的图片（截图、头像）
//
// 支持两种来源：
//   - 本地文件路径
//   - s3://bucket/key（MinIO），bucket 为空时使用配置的默认 bucket
//
// 只做读取与大小检查，上传由 apiclient 以 multipart 一次性发送。
package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	objstore "research-admin/internal/shared/minio"
)

// DefaultMaxImageBytes 单张图片上限 500KB
const DefaultMaxImageBytes = 500 * 1024

var (
	// ErrNotImage 非图片文件
	ErrNotImage = errors.New("not an image")
	// ErrNoObjectStore 引用了 s3:// 但未配置 MinIO
	ErrNoObjectStore = errors.New("object storage is not configured")
)

// Attachment 一个待上传文件
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
	Source      string

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Open 打开内容，调用方负责关闭
func (a Attachment) Open(ctx context.Context) (io.ReadCloser, error) {
	if a.open == nil {
		return nil, fmt.Errorf("attachment %s has no content", a.Name)
	}
	return a.open(ctx)
}

// FromBytes 内存内容（测试与 stdin 使用）
func FromBytes(name string, data []byte) Attachment {
	return Attachment{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentTypeOf(name),
		Source:      name,
		open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// ObjectStore 对象存储读取接口（objstore.Client 实现）
type ObjectStore interface {
	Stat(ctx context.Context, bucket, key string) (objstore.ObjectInfo, error)
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Resolver 把命令行参数解析为 Attachment
type Resolver struct {
	objects ObjectStore
}

// NewResolver objects 可为 nil（未配置 MinIO）
func NewResolver(objects ObjectStore) *Resolver {
	return &Resolver{objects: objects}
}

// Resolve 解析单个来源，要求是图片
func (r *Resolver) Resolve(ctx context.Context, ref string) (Attachment, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "s3://") {
		return r.resolveObject(ctx, ref)
	}
	return resolveLocal(ref)
}

// ResolveAll 按顺序解析
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) ([]Attachment, error) {
	out := make([]Attachment, 0, len(refs))
	for _, ref := range refs {
		a, err := r.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func resolveLocal(p string) (Attachment, error) {
	info, err := os.Stat(p)
	if err != nil {
		return Attachment{}, fmt.Errorf("attachment %s: %w", p, err)
	}
	if info.IsDir() {
		return Attachment{}, fmt.Errorf("attachment %s: is a directory", p)
	}
	ct := contentTypeOf(p)
	if !isImage(ct) {
		return Attachment{}, fmt.Errorf("attachment %s: %w", p, ErrNotImage)
	}
	return Attachment{
		Name:        filepath.Base(p),
		Size:        info.Size(),
		ContentType: ct,
		Source:      p,
		open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(p)
		},
	}, nil
}

func (r *Resolver) resolveObject(ctx context.Context, ref string) (Attachment, error) {
	if r.objects == nil {
		return Attachment{}, fmt.Errorf("attachment %s: %w", ref, ErrNoObjectStore)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return Attachment{}, fmt.Errorf("attachment %s: %w", ref, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return Attachment{}, fmt.Errorf("attachment %s: missing object key", ref)
	}

	info, err := r.objects.Stat(ctx, bucket, key)
	if err != nil {
		return Attachment{}, fmt.Errorf("attachment %s: %w", ref, err)
	}
	ct := info.ContentType
	if !isImage(ct) {
		ct = contentTypeOf(key)
	}
	if !isImage(ct) {
		return Attachment{}, fmt.Errorf("attachment %s: %w", ref, ErrNotImage)
	}

	objects := r.objects
	return Attachment{
		Name:        path.Base(key),
		Size:        info.Size,
		ContentType: ct,
		Source:      ref,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return objects.Download(ctx, bucket, key)
		},
	}, nil
}

// SplitBySize 按单张上限拆分，保持原有顺序
func SplitBySize(list []Attachment, limit int64) (kept, oversized []Attachment) {
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	for _, a := range list {
		if a.Size > limit {
			oversized = append(oversized, a)
			continue
		}
		kept = append(kept, a)
	}
	return kept, oversized
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func isImage(ct string) bool {
	return strings.HasPrefix(ct, "image/")
}
