// Package eligibility 冷却期计算与重提/申诉/举报等资格判断
//
// 全部为纯函数，当前时间由调用方传入。
package eligibility

import (
	"fmt"
	"time"

	"research-admin/internal/shared/model"
)

// Remaining 冷却期计算结果
type Remaining struct {
	CanSubmitAgain bool
	Left           time.Duration // CanSubmitAgain 时为 0
	WindowEnd      time.Time
}

// String 展示文案
func (r Remaining) String() string {
	if r.CanSubmitAgain {
		return "Can submit again"
	}
	days := int(r.Left / (24 * time.Hour))
	hours := int(r.Left % (24 * time.Hour) / time.Hour)
	if days >= 1 {
		return fmt.Sprintf("%dd %dh left", days, hours)
	}
	minutes := int(r.Left % time.Hour / time.Minute)
	return fmt.Sprintf("%dh %dm left", hours, minutes)
}

// Calculator 冷却期计算器
//
// 窗口结束时间按日历日相加（在 Location 时区内），剩余时长按绝对时间差计算；
// 跨夏令时切换时两者可能相差一小时。
type Calculator struct {
	Location *time.Location
}

// NewCalculator loc 为 nil 时使用 UTC
func NewCalculator(loc *time.Location) Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return Calculator{Location: loc}
}

// WindowEnd createdAt + days 个日历日
func (c Calculator) WindowEnd(createdAt time.Time, days int) time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return createdAt.In(loc).AddDate(0, 0, days)
}

// Cooldown 计算冷却期；days ≤ 0 时立即可提交
func (c Calculator) Cooldown(createdAt time.Time, days int, now time.Time) Remaining {
	end := c.WindowEnd(createdAt, days)
	if days <= 0 || !now.Before(end) {
		return Remaining{CanSubmitAgain: true, WindowEnd: end}
	}
	return Remaining{Left: end.Sub(now), WindowEnd: end}
}

// CooldownDays 冷却期天数；nil 表示未配置，按默认 30 天
func (c Calculator) CooldownDays(createdAt time.Time, days *int, now time.Time) Remaining {
	return c.Cooldown(createdAt, model.EffectiveCooldownDays(days), now)
}

// Inquiry 询盘的冷却期：取询盘分类，其次关联调研的分类
func (c Calculator) Inquiry(inq *model.Inquiry, now time.Time) Remaining {
	return c.CooldownDays(inq.CreatedAt, inquiryCooldownDays(inq), now)
}

func inquiryCooldownDays(inq *model.Inquiry) *int {
	if inq.Category != nil && inq.Category.CooldownDays != nil {
		return inq.Category.CooldownDays
	}
	if inq.Research != nil && inq.Research.Category != nil {
		return inq.Research.Category.CooldownDays
	}
	return nil
}

// Cooldown 使用 UTC 的便捷函数
func Cooldown(createdAt time.Time, days int, now time.Time) Remaining {
	return NewCalculator(time.UTC).Cooldown(createdAt, days, now)
}
