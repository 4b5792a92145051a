package model

import (
	"bytes"
	"encoding/json"
)

// Page 列表响应 {data[], total}
//
// 用户、分类、付款等接口直接返回数组，此时 Total 取数组长度。
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// UnmarshalJSON 同时接受信封与裸数组
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Page[T]{Data: []T{}}
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = Page[T]{Data: items, Total: len(items)}
		return nil
	}

	var env struct {
		Data  []T  `json:"data"`
		Total *int `json:"total"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	p.Data = env.Data
	if p.Data == nil {
		p.Data = []T{}
	}
	if env.Total != nil {
		p.Total = *env.Total
	} else {
		p.Total = len(p.Data)
	}
	return nil
}
