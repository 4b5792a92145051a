package model

import (
	"encoding/json"
	"time"
)

// Notice 分类 + 角色范围的广播通知
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  *Ref      `json:"category,omitempty"`
	Roles     []Role    `json:"roles,omitempty"`
	CreatedBy *Ref      `json:"createdBy,omitempty"`
	Read      bool      `json:"read,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON 兼容 "_id"
func (n *Notice) UnmarshalJSON(data []byte) error {
	type alias Notice
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.ID = pickID(n.ID, aux.MongoID)
	return nil
}

// Message 一对一站内信
type Message struct {
	ID        string    `json:"id"`
	From      *Ref      `json:"from,omitempty"`
	To        *Ref      `json:"to,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON 兼容 "_id"
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.ID = pickID(m.ID, aux.MongoID)
	return nil
}

// UnreadCount 未读条数
func UnreadCount(messages []Message) int {
	n := 0
	for _, m := range messages {
		if !m.Read {
			n++
		}
	}
	return n
}

// DisapprovalReason 管理员维护的驳回原因
type DisapprovalReason struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// UnmarshalJSON 兼容 "_id"
func (d *DisapprovalReason) UnmarshalJSON(data []byte) error {
	type alias DisapprovalReason
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.ID = pickID(d.ID, aux.MongoID)
	return nil
}
