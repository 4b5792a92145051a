package model

import (
	"encoding/json"
	"time"
)

// DefaultCooldownDays 分类未配置冷却期时的默认天数
const DefaultCooldownDays = 30

// Category 分类
type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CooldownDays *int      `json:"cooldownDays,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON 兼容 "_id"
func (c *Category) UnmarshalJSON(data []byte) error {
	type alias Category
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.ID = pickID(c.ID, aux.MongoID)
	return nil
}

// EffectiveCooldownDays 未配置时返回 30；显式配置的值原样返回（包括 ≤0）
func (c *Category) EffectiveCooldownDays() int {
	if c == nil {
		return DefaultCooldownDays
	}
	return EffectiveCooldownDays(c.CooldownDays)
}

// EffectiveCooldownDays 同上，作用于引用中的冷却期
func (r *Ref) EffectiveCooldownDays() int {
	if r == nil {
		return DefaultCooldownDays
	}
	return EffectiveCooldownDays(r.CooldownDays)
}

// EffectiveCooldownDays 冷却期缺省处理
func EffectiveCooldownDays(days *int) int {
	if days == nil {
		return DefaultCooldownDays
	}
	return *days
}

// IntPtr 返回 int 指针
func IntPtr(v int) *int {
	return &v
}
