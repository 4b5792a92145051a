package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// StatusCount 按状态聚合的计数/金额（服务端 $group 结果）
type StatusCount struct {
	ID     string  `json:"_id"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount,omitempty"`
}

// CountryCount 按国家聚合的调研数
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// DashboardStats 仪表盘统计
//
// 结构随角色变化，常用字段做了类型化，其余保留在 Raw 中。
type DashboardStats struct {
	Research               []StatusCount  `json:"research,omitempty"`
	Inquiry                []StatusCount  `json:"inquiry,omitempty"`
	Payments               []StatusCount  `json:"payments,omitempty"`
	CategoryCount          int            `json:"categoryCount,omitempty"`
	Notices                int            `json:"notices,omitempty"`
	UnreadMessages         int            `json:"unreadMessages,omitempty"`
	DistributedCount       int            `json:"distributedCount,omitempty"`
	ResearchByCountry      []CountryCount `json:"researchByCountry,omitempty"`
	CategoriesWithCooldown []Category     `json:"categoriesWithCooldown,omitempty"`

	Raw map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON 解码类型化字段并保留原始字段
func (d *DashboardStats) UnmarshalJSON(data []byte) error {
	type alias DashboardStats
	if err := json.Unmarshal(data, (*alias)(d)); err != nil {
		return err
	}
	return json.Unmarshal(data, &d.Raw)
}

// ResearchByStatus 状态 → 数量
func (d *DashboardStats) ResearchByStatus() map[string]int {
	return countsOf(d.Research)
}

// InquiryByStatus 状态 → 数量
func (d *DashboardStats) InquiryByStatus() map[string]int {
	return countsOf(d.Inquiry)
}

// PaymentByStatus 付款状态 → 金额
func (d *DashboardStats) PaymentByStatus() map[string]float64 {
	out := make(map[string]float64, len(d.Payments))
	for _, p := range d.Payments {
		out[p.ID] = p.Amount
	}
	return out
}

func countsOf(list []StatusCount) map[string]int {
	out := make(map[string]int, len(list))
	for _, s := range list {
		out[s.ID] = s.Count
	}
	return out
}

// CountByCountry 从调研列表统计国家分布，数量降序；空国家记为 "—"
//
// 服务端未返回 researchByCountry 时，研究员仪表盘用已通过的调研列表在本地统计。
func CountByCountry(rows []Research) []CountryCount {
	counts := map[string]int{}
	for _, r := range rows {
		c := strings.TrimSpace(r.Country)
		if c == "" {
			c = "—"
		}
		counts[c]++
	}
	out := make([]CountryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CountryCount{Country: c, Count: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out
}
