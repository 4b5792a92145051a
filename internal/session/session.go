// Package session 登录会话持有者
//
// 生命周期：Init → Hydrating → Ready | Expired；没有本地 token 时直接进入 Anonymous。
// 只有 Login / Logout / Refresh 会修改会话；能力集合在用户变化时计算一次。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"research-admin/internal/apiclient"
	"research-admin/internal/shared/model"
	"research-admin/internal/shared/storage"
	"research-admin/pkg/logging"
)

// ErrNotLoggedIn 当前没有登录用户
var ErrNotLoggedIn = errors.New("not logged in")

// State 会话状态
type State int

const (
	StateInit State = iota
	StateHydrating
	StateReady
	StateExpired
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateHydrating:
		return "hydrating"
	case StateReady:
		return "ready"
	case StateExpired:
		return "expired"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Holder 会话持有者，并发安全
type Holder struct {
	api    *apiclient.Client
	store  storage.KV
	logger *logging.Logger

	mu    sync.RWMutex
	state State
	user  *model.User
	caps  model.Capabilities
}

// New 创建会话持有者，并注册为客户端的失效监听
func New(api *apiclient.Client, logger *logging.Logger) *Holder {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Holder{
		api:    api,
		store:  api.Store(),
		logger: logger,
		caps:   model.Capabilities{},
	}
	api.AddInvalidator(h)
	return h
}

// Init 从本地快照恢复会话并向服务端确认
//
// 有 token 与用户快照时先乐观地设置用户，再请求 /api/auth/me；
// 确认失败则清除本地状态进入 Expired。
func (h *Holder) Init(ctx context.Context) error {
	token, _ := h.store.Get(ctx, storage.KeyToken)
	raw, _ := h.store.Get(ctx, storage.KeyUser)

	if token == "" || raw == "" {
		h.set(StateAnonymous, nil)
		return nil
	}
	snapshot, err := decodeUser(raw)
	if err != nil {
		// 损坏的快照
		h.clearStore(ctx)
		h.set(StateAnonymous, nil)
		return nil
	}

	h.set(StateHydrating, snapshot)
	h.logger.SessionLog("hydrating", snapshot.ID)

	u, err := h.api.Auth.Me(ctx)
	if err != nil {
		if apiclient.IsCanceled(err) {
			return err
		}
		h.clearStore(ctx)
		h.set(StateExpired, nil)
		h.logger.SessionLog("expired", snapshot.ID, "error", err.Error())
		return nil
	}
	if err := h.persistUser(ctx, u); err != nil {
		return err
	}
	h.set(StateReady, u)
	h.logger.SessionLog("ready", u.ID)
	return nil
}

// Login 登录并持久化 token 与用户；失败时原样返回错误，状态不变
//
// 并发登录不去重，最后返回的响应生效。
func (h *Holder) Login(ctx context.Context, email, password string) (*model.User, error) {
	resp, err := h.api.Auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := h.store.Set(ctx, storage.KeyToken, resp.Token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	u := resp.User
	if err := h.persistUser(ctx, &u); err != nil {
		return nil, err
	}
	h.api.ResetInvalidation()
	h.set(StateReady, &u)
	h.logger.SessionLog("logged_in", u.ID, "role", string(u.Role))
	return &u, nil
}

// Logout 清除本地会话，不请求服务端
func (h *Holder) Logout(ctx context.Context) error {
	prev := h.CurrentUser()
	err := h.store.Delete(ctx, storage.KeyToken, storage.KeyUser)
	h.set(StateAnonymous, nil)
	if prev != nil {
		h.logger.SessionLog("logged_out", prev.ID)
	}
	return err
}

// Refresh 重新获取当前用户（修改资料后调用）
func (h *Holder) Refresh(ctx context.Context) (*model.User, error) {
	if h.CurrentUser() == nil {
		return nil, ErrNotLoggedIn
	}
	u, err := h.api.Auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.persistUser(ctx, u); err != nil {
		return nil, err
	}
	h.set(StateReady, u)
	return u, nil
}

// Invalidate 实现 apiclient.Invalidator：401 后本地存储已被客户端清除
func (h *Holder) Invalidate(context.Context) {
	prev := h.CurrentUser()
	h.set(StateExpired, nil)
	if prev != nil {
		h.logger.SessionLog("invalidated", prev.ID)
	}
}

// CurrentUser 当前用户副本，未登录返回 nil
func (h *Holder) CurrentUser() *model.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.user == nil {
		return nil
	}
	u := *h.user
	return &u
}

// RequireUser 当前用户，未登录返回 ErrNotLoggedIn
func (h *Holder) RequireUser() (*model.User, error) {
	if u := h.CurrentUser(); u != nil {
		return u, nil
	}
	return nil, ErrNotLoggedIn
}

// Capabilities 当前用户能力集合
func (h *Holder) Capabilities() model.Capabilities {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.caps
}

// Can 是否具备能力
func (h *Holder) Can(c model.Capability) bool {
	return h.Capabilities().Has(c)
}

// State 当前状态
func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Loading 会话尚未确定（Init 或 Hydrating）
func (h *Holder) Loading() bool {
	s := h.State()
	return s == StateInit || s == StateHydrating
}

// Token 本地 token 的声明信息
func (h *Holder) Token(ctx context.Context) (*TokenInfo, error) {
	token, err := h.store.Get(ctx, storage.KeyToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	return ParseToken(token)
}

func (h *Holder) set(state State, u *model.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	h.user = u
	if u == nil {
		h.caps = model.Capabilities{}
		return
	}
	h.caps = model.CapabilitiesFor(u.Role)
}

func (h *Holder) persistUser(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}
	if err := h.store.Set(ctx, storage.KeyUser, string(data)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (h *Holder) clearStore(ctx context.Context) {
	if err := h.store.Delete(context.WithoutCancel(ctx), storage.KeyToken, storage.KeyUser); err != nil {
		h.logger.WithError(err).Warn("failed to clear session")
	}
}

func decodeUser(raw string) (*model.User, error) {
	if raw == "" {
		return nil, storage.ErrNotFound
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
