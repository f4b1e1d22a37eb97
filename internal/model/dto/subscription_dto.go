package dto

// SubscriptionStatusResponse 订阅状态
type SubscriptionStatusResponse struct {
	IsPremium         bool    `json:"isPremium"`
	SearchesRemaining *int    `json:"searchesRemaining,omitempty"`
	DailyLimit        *int    `json:"dailyLimit,omitempty"`
	LastSearchDate    *string `json:"lastSearchDate,omitempty"`
	ResetAt           string  `json:"resetAt,omitempty"`
}

// ConfirmSubscriptionRequest 前端结账完成后的订阅确认
type ConfirmSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" binding:"required"`
	CustomerID     string `json:"customerId" binding:"required"`
	Status         string `json:"status" binding:"required,oneof=active canceled past_due trialing"`
}
