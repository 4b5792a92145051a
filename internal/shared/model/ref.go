package model

import (
	"bytes"
	"encoding/json"
)

// Ref 关联引用
//
// 服务端返回的关联字段（category / researcher / assignedTo …）可能是
// 裸 ID 字符串，也可能是 populate 后的对象，Ref 两种形式都接受。
type Ref struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         Role   `json:"role,omitempty"`
	CooldownDays *int   `json:"cooldownDays,omitempty"`
}

// RefID 返回引用 ID，nil 安全
func RefID(r *Ref) string {
	if r == nil {
		return ""
	}
	return r.ID
}

// RefName 返回展示名，未 populate 时回退到 ID
func RefName(r *Ref) string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// UnmarshalJSON 支持 "id" 字符串与对象两种形式
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}

	type alias Ref
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	return nil
}

// pickID 在 "id" 与 "_id" 之间选择非空值
func pickID(id, mongoID string) string {
	if id != "" {
		return id
	}
	return mongoID
}
