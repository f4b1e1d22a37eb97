package dto

// GenerateIdeasRequest 生成内容创意请求
type GenerateIdeasRequest struct {
	Keywords string `json:"keywords" binding:"required"`
	Days     int    `json:"days"`
	Style    string `json:"style" binding:"omitempty,oneof=casual professional"`
}

// Limits 配额信息，付费用户只返回 isPremium 与 unlimited
type Limits struct {
	IsPremium bool   `json:"isPremium"`
	Unlimited bool   `json:"unlimited,omitempty"`
	Daily     *int   `json:"daily,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
	ResetAt   string `json:"resetAt,omitempty"`
}
