package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/idea_go_server/config"
	"github.com/qs3c/idea_go_server/internal/model"
	"github.com/qs3c/idea_go_server/internal/model/dto"
	"github.com/qs3c/idea_go_server/internal/repository"
)

var (
	ErrQuotaExceeded      = errors.New("今日生成次数已用完，升级会员可无限使用")
	ErrStorageUnavailable = errors.New("配额存储暂不可用")
)

// QuotaExceededError 配额用完，附带当前配额状态
type QuotaExceededError struct {
	Status *QuotaStatus
}

func (e *QuotaExceededError) Error() string {
	return ErrQuotaExceeded.Error()
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// QuotaStatus 配额检查结果，Remaining 为 -1 表示不限次数
type QuotaStatus struct {
	Allowed        bool
	Remaining      int
	IsPremium      bool
	DailyLimit     int
	LastSearchDate *string
	ResetAt        time.Time
}

// Limits 转换为响应中的配额信息
func (s *QuotaStatus) Limits() *dto.Limits {
	if s.IsPremium {
		return &dto.Limits{IsPremium: true, Unlimited: true}
	}
	daily, remaining := s.DailyLimit, s.Remaining
	return &dto.Limits{
		IsPremium: false,
		Daily:     &daily,
		Remaining: &remaining,
		ResetAt:   s.ResetAt.Format(time.RFC3339),
	}
}

type QuotaService struct {
	userRepo   *repository.UserRepository
	dailyLimit int
	now        func() time.Time
}

type QuotaOption func(*QuotaService)

// WithClock 替换时钟，用于测试跨日边界
func WithClock(now func() time.Time) QuotaOption {
	return func(s *QuotaService) {
		s.now = now
	}
}

func NewQuotaService(userRepo *repository.UserRepository, cfg *config.Config, opts ...QuotaOption) *QuotaService {
	s := &QuotaService{
		userRepo:   userRepo,
		dailyLimit: cfg.Quota.DailyLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyLimit 免费用户每日次数上限
func (s *QuotaService) DailyLimit() int {
	return s.dailyLimit
}

func (s *QuotaService) today() (string, time.Time) {
	now := s.now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return now.Format(model.DateLayout), nextMidnight
}

// CheckAndReserve 检查用户当前是否还能生成，不修改任何数据
func (s *QuotaService) CheckAndReserve(ctx context.Context, userID string) (*QuotaStatus, error) {
	user, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		user = &model.User{UserID: userID}
	}
	return s.statusOf(user), nil
}

// Status 查询配额信息，与 CheckAndReserve 计算方式一致
func (s *QuotaService) Status(ctx context.Context, userID string) (*QuotaStatus, error) {
	return s.CheckAndReserve(ctx, userID)
}

// IsPremium 查询用户是否为付费用户，记录不存在视为免费用户
func (s *QuotaService) IsPremium(ctx context.Context, userID string) (bool, error) {
	status, err := s.CheckAndReserve(ctx, userID)
	if err != nil {
		return false, err
	}
	return status.IsPremium, nil
}

func (s *QuotaService) statusOf(user *model.User) *QuotaStatus {
	today, resetAt := s.today()
	status := &QuotaStatus{
		IsPremium:      user.IsPremium,
		DailyLimit:     s.dailyLimit,
		LastSearchDate: user.LastSearchDate,
		ResetAt:        resetAt,
	}

	if user.IsPremium {
		status.Allowed = true
		status.Remaining = -1
		return status
	}

	remaining := s.dailyLimit - user.SearchesOn(today)
	if remaining < 0 {
		remaining = 0
	}
	status.Remaining = remaining
	status.Allowed = remaining > 0
	return status
}

// Commit 在生成成功后记一次使用。
// 计数与上限判断在同一条 UPDATE 中完成，并发请求不会超出每日上限。
func (s *QuotaService) Commit(ctx context.Context, userID string) (*QuotaStatus, error) {
	if s.dailyLimit <= 0 {
		return nil, ErrQuotaExceeded
	}

	today, resetAt := s.today()
	count, ok, err := s.userRepo.IncrementSearchCount(ctx, userID, today, s.dailyLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !ok {
		// 记录可能还不存在，插入后重试一次
		if err := s.userRepo.EnsureUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		count, ok, err = s.userRepo.IncrementSearchCount(ctx, userID, today, s.dailyLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}

	// 扣减已生效，状态由返回的计数直接得出，不再回读
	if ok {
		remaining := s.dailyLimit - count
		if remaining < 0 {
			remaining = 0
		}
		return &QuotaStatus{
			Allowed:        remaining > 0,
			Remaining:      remaining,
			DailyLimit:     s.dailyLimit,
			LastSearchDate: &today,
			ResetAt:        resetAt,
		}, nil
	}

	status, err := s.CheckAndReserve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !status.IsPremium {
		return nil, &QuotaExceededError{Status: status}
	}
	return status, nil
}
