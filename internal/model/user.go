package model

import (
	"time"
)

// DateLayout 配额日期格式（UTC 自然日）
const DateLayout = "2006-01-02"

// User 用户配额与订阅记录
type User struct {
	ID             int64     `gorm:"primaryKey" json:"-"`
	UserID         string    `gorm:"column:user_id;size:128;uniqueIndex;not null" json:"user_id"`
	SearchCount    int       `gorm:"not null;default:0" json:"search_count"`
	LastSearchDate *string   `gorm:"size:10" json:"last_search_date"`
	IsPremium      bool      `gorm:"not null" json:"is_premium"`
	SubscriptionID *string   `gorm:"size:255" json:"-"`
	CustomerID     *string   `gorm:"size:255;index" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// SearchesOn 返回指定日期的已用次数，日期不一致时视为 0
func (u *User) SearchesOn(date string) int {
	if u.LastSearchDate == nil || *u.LastSearchDate != date {
		return 0
	}
	return u.SearchCount
}
