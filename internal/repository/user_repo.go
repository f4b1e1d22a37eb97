package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/idea_go_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser 用户不存在时插入一条空记录，已存在则不做任何修改
func (r *UserRepository) EnsureUser(ctx context.Context, userID string) error {
	user := &model.User{UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(user).Error
}

// IncrementSearchCount 原子地消耗一次配额，返回更新后的计数。
// 日期不是 today 时计数重置为 1，否则加 1；计数已达 limit 或用户为付费用户时不更新，ok 为 false。
// search_count 必须排在 last_search_date 之前赋值（MySQL 按从左到右的顺序求值）。
// 计数回读与 UPDATE 在同一事务中，回读失败时本次扣减一并回滚。
func (r *UserRepository) IncrementSearchCount(ctx context.Context, userID, today string, limit int) (count int, ok bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE users SET
				search_count = CASE WHEN last_search_date = ? THEN search_count + 1 ELSE 1 END,
				last_search_date = ?,
				updated_at = ?
			WHERE user_id = ? AND is_premium = ?
				AND (last_search_date IS NULL OR last_search_date <> ? OR search_count < ?)`,
			today, today, time.Now(), userID, false, today, limit,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}

		if err := tx.Raw("SELECT search_count FROM users WHERE user_id = ?", userID).Scan(&count).Error; err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return count, ok, nil
}

// UpsertSubscription 写入订阅信息。
// 仅订阅相关字段会覆盖已有记录，search_count / last_search_date 只在插入时初始化。
func (r *UserRepository) UpsertSubscription(ctx context.Context, userID, subscriptionID, customerID string, isPremium bool) error {
	user := &model.User{
		UserID:    userID,
		IsPremium: isPremium,
	}
	columns := []string{"is_premium", "updated_at"}
	if subscriptionID != "" {
		user.SubscriptionID = &subscriptionID
		columns = append(columns, "subscription_id")
	}
	if customerID != "" {
		user.CustomerID = &customerID
		columns = append(columns, "customer_id")
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(user).Error
}

// SetPremiumByCustomerID 按支付平台客户 ID 更新付费状态
func (r *UserRepository) SetPremiumByCustomerID(ctx context.Context, customerID string, isPremium bool) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("customer_id = ?", customerID).
		Update("is_premium", isPremium).Error
}
