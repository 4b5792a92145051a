package console

import (
	"context"
	"errors"
	"sync"

	"research-admin/internal/apiclient"
)

// ErrNothingSelected 未勾选任何行
var ErrNothingSelected = errors.New("nothing selected")

// Selection 勾选集合，保持勾选顺序
type Selection struct {
	mu  sync.Mutex
	ids []string
	set map[string]struct{}
}

// NewSelection 创建空集合
func NewSelection() *Selection {
	return &Selection{set: map[string]struct{}{}}
}

// Toggle 切换勾选，返回切换后的状态
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[id]; ok {
		s.removeLocked(id)
		return false
	}
	s.set[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Has 是否已勾选
func (s *Selection) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[id]
	return ok
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs 按勾选顺序返回
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

// Clear 清空
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.set = map[string]struct{}{}
}

// Replace 用给定 id 替换当前集合
func (s *Selection) Replace(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.set = map[string]struct{}{}
	for _, id := range ids {
		if _, ok := s.set[id]; ok {
			continue
		}
		s.set[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

// Remove 移除指定 id
func (s *Selection) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.removeLocked(id)
	}
}

func (s *Selection) removeLocked(id string) {
	if _, ok := s.set[id]; !ok {
		return
	}
	delete(s.set, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

// ToggleAll 全选切换
//
// 已勾选数等于可选行数时清空，否则勾选全部可选行（不可选的行永远不会被勾上）。
func ToggleAll[T Row](sel *Selection, rows []T, eligible func(T) bool) {
	var ids []string
	for _, r := range rows {
		if eligible == nil || eligible(r) {
			ids = append(ids, r.RecordID())
		}
	}
	if sel.Len() == len(ids) {
		sel.Clear()
		return
	}
	sel.Replace(ids)
}

// Reloader 重新拉取当前列表
type Reloader interface {
	Load(ctx context.Context) error
}

// BulkRunner 对勾选集合执行一次批量请求
type BulkRunner struct {
	sel    *Selection
	list   Reloader
	onErr  func(msg string)
	submit func(ctx context.Context, ids []string) error
}

// NewBulkRunner list 可为 nil；onErr 接收展示给用户的错误文案
func NewBulkRunner(sel *Selection, list Reloader, onErr func(string), submit func(ctx context.Context, ids []string) error) *BulkRunner {
	return &BulkRunner{sel: sel, list: list, onErr: onErr, submit: submit}
}

// Run 提交全部勾选 id（单次请求）
//
// 成功后清空勾选并重新拉取；失败时保留勾选。
func (b *BulkRunner) Run(ctx context.Context) error {
	ids := b.sel.IDs()
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	if err := b.submit(ctx, ids); err != nil {
		b.report(err)
		return err
	}
	b.sel.Clear()
	return b.reload(ctx)
}

// RunOn 对指定 id 提交（行内操作），成功后只移除这些 id 并重新拉取
func (b *BulkRunner) RunOn(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	if err := b.submit(ctx, ids); err != nil {
		b.report(err)
		return err
	}
	b.sel.Remove(ids...)
	return b.reload(ctx)
}

func (b *BulkRunner) report(err error) {
	if b.onErr != nil && !apiclient.IsCanceled(err) {
		b.onErr(apiclient.Message(err, "Action failed"))
	}
}

func (b *BulkRunner) reload(ctx context.Context) error {
	if b.list == nil {
		return nil
	}
	if err := b.list.Load(ctx); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}
