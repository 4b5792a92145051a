package model

import (
	"encoding/json"
	"time"
)

// User 用户
//
// 登录接口返回 "id"，列表接口返回 "_id"，解码时两者都接受，编码统一为 "id"。
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	Category        *Ref      `json:"category,omitempty"` // SUPER_ADMIN 为空
	Country         string    `json:"country,omitempty"`
	IsActive        bool      `json:"isActive"`
	TrustedInquirer bool      `json:"trustedInquirer,omitempty"`
	UnitPayment     float64   `json:"unitPayment,omitempty"`
	ProfileImage    string    `json:"profileImage,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON 兼容 "_id"
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		MongoID  string `json:"_id"`
		IsActive *bool  `json:"isActive"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.ID = pickID(u.ID, aux.MongoID)
	// 未返回 isActive 的旧数据视为启用
	u.IsActive = aux.IsActive == nil || *aux.IsActive
	return nil
}

// AsRef 转换为引用
func (u *User) AsRef() *Ref {
	if u == nil {
		return nil
	}
	return &Ref{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Owns 判断引用是否指向该用户
func (u *User) Owns(r *Ref) bool {
	return u != nil && r != nil && u.ID != "" && r.ID == u.ID
}

// CategoryID 用户所属分类 ID
func (u *User) CategoryID() string {
	if u == nil {
		return ""
	}
	return RefID(u.Category)
}
