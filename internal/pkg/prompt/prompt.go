// Package prompt 构造内容创意生成的提示词
package prompt

import (
	"fmt"
	"strings"
)

const (
	DefaultDays    = 30
	FreeMaxDays    = 30
	PremiumMaxDays = 90

	StyleCasual       = "casual"
	StyleProfessional = "professional"
)

const systemPrompt = `You are a professional content marketing strategist who specializes in creating content calendar ideas.
Based on the user's keywords and niche, generate creative, specific, and actionable content ideas.
Each idea should include:
1. A clear, engaging title
2. The content format (blog post, video, infographic, etc.)
3. One sentence describing the key points to cover

Output format should be a JSON array of objects with structure:
{
  "title": "Title of the content piece",
  "format": "Content format",
  "description": "Brief description of what to cover",
  "date": null
}
The "date" field must always be null, it is assigned later.

Make the ideas specific, not generic.
For example, instead of "How to improve SEO" use "5 Hidden SEO Techniques That Increased Our Traffic by 327% in 2025"`

const premiumInstruction = "Make these ideas extra creative and high-value, as this is for a premium user."

type Request struct {
	Keywords string
	Days     int
	Style    string
	Premium  bool
}

type Prompt struct {
	System string
	User   string
	// Days 裁剪后的实际条数
	Days int
}

// Limits 条数上限
type Limits struct {
	FreeMaxDays    int
	PremiumMaxDays int
}

var defaultLimits = Limits{FreeMaxDays: FreeMaxDays, PremiumMaxDays: PremiumMaxDays}

// ClampDays 按套餐裁剪生成条数，非正数取默认值
func ClampDays(days int, premium bool) int {
	return defaultLimits.ClampDays(days, premium)
}

func (l Limits) ClampDays(days int, premium bool) int {
	if days <= 0 {
		days = DefaultDays
	}

	limit := l.FreeMaxDays
	if premium {
		limit = l.PremiumMaxDays
	}
	if limit > 0 && days > limit {
		days = limit
	}
	return days
}

// Build 使用默认上限构造提示词
func Build(req Request) Prompt {
	return defaultLimits.Build(req)
}

// Build 构造提示词，条数先裁剪再写入文本
func (l Limits) Build(req Request) Prompt {
	days := l.ClampDays(req.Days, req.Premium)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d content ideas related to: %s\n\n", days, strings.TrimSpace(req.Keywords))
	fmt.Fprintf(&b, "Style preference: %s\n\n", stylePhrase(req.Style))
	if req.Premium {
		b.WriteString(premiumInstruction)
		b.WriteString("\n\n")
	}
	b.WriteString("Return ONLY the JSON array with no additional text or explanation.")

	return Prompt{
		System: systemPrompt,
		User:   b.String(),
		Days:   days,
	}
}

func stylePhrase(style string) string {
	if style == StyleProfessional {
		return "Professional and authoritative"
	}
	return "Conversational and approachable"
}
