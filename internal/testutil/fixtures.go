package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/idea_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		UserID: fmt.Sprintf("user_%d", time.Now().UnixNano()),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUserID 设置用户标识
func WithUserID(userID string) func(*model.User) {
	return func(u *model.User) {
		u.UserID = userID
	}
}

// WithSearches 设置某一天的已用次数
func WithSearches(count int, date time.Time) func(*model.User) {
	return func(u *model.User) {
		d := date.UTC().Format(model.DateLayout)
		u.SearchCount = count
		u.LastSearchDate = &d
	}
}

// WithPremium 设置为付费用户
func WithPremium() func(*model.User) {
	return func(u *model.User) {
		u.IsPremium = true
	}
}

// WithCustomer 设置支付平台客户 ID
func WithCustomer(customerID string) func(*model.User) {
	return func(u *model.User) {
		u.CustomerID = &customerID
	}
}

// ReloadUser 重新读取用户记录
func ReloadUser(t *testing.T, db *gorm.DB, userID string) *model.User {
	t.Helper()

	var user model.User
	if err := db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		t.Fatalf("Failed to reload user %s: %v", userID, err)
	}
	return &user
}
