// Package file 单文件会话存储
//
// 状态以 JSON 对象写入一个文件（默认 ~/.config/research-admin/session.json），
// 权限 0600。配置了 SESSION_SECRET 时整个文件用 nacl/secretbox 加密，
// 密钥由 blake2b-256(secret) 派生。
package file

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"

	"research-admin/internal/shared/storage"
)

// sealedPrefix 加密文件头
const sealedPrefix = "sealed:v1:"

const nonceSize = 24

// Store 文件存储
type Store struct {
	path string
	key  *[32]byte // nil 表示明文

	mu sync.Mutex
}

// Option 配置项
type Option func(*Store)

// WithSecret 启用加密
func WithSecret(secret string) Option {
	return func(s *Store) {
		if secret == "" {
			return
		}
		k := blake2b.Sum256([]byte(secret))
		s.key = &k
	}
}

// New 创建文件存储，必要时创建父目录
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("session file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path 文件路径
func (s *Store) Path() string {
	return s.path
}

// Sealed 是否加密
func (s *Store) Sealed() bool {
	return s.key != nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil && !errors.Is(err, storage.ErrSealed) {
		return err
	}
	if data == nil {
		// 无法解密的旧文件直接覆盖
		data = map[string]string{}
	}
	data[key] = value
	return s.save(data)
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if errors.Is(err, storage.ErrSealed) {
		// 密钥不匹配时无法部分删除，整体清空
		return s.remove()
	}
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	if len(data) == 0 {
		return s.remove()
	}
	return s.save(data)
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return map[string]string{}, nil
	}

	// 明文文件在启用密钥后仍可读取，下次写入时加密
	plain := []byte(content)
	if strings.HasPrefix(content, sealedPrefix) {
		if s.key == nil {
			return nil, storage.ErrSealed
		}
		plain, err = open(s.key, strings.TrimPrefix(content, sealedPrefix))
		if err != nil {
			return nil, err
		}
	}

	data := map[string]string{}
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return data, nil
}

func (s *Store) save(data map[string]string) error {
	plain, err := json.Marshal(data)
	if err != nil {
		return err
	}
	out := plain
	if s.key != nil {
		sealed, err := seal(s.key, plain)
		if err != nil {
			return err
		}
		out = []byte(sealedPrefix + sealed)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func seal(key *[32]byte, plain []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func open(key *[32]byte, encoded string) ([]byte, error) {
	box, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(box) < nonceSize {
		return nil, storage.ErrSealed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, key)
	if !ok {
		return nil, storage.ErrSealed
	}
	return plain, nil
}

var _ storage.KV = (*Store)(nil)
