package models

import "time"

// PolicyKind names a scheduling policy. A learner is bound to exactly one
// active policy at a time.
type PolicyKind string

const (
	PolicyDefault   PolicyKind = "default" // forgetting-curve interval calculator
	PolicyLeitner   PolicyKind = "leitner"
	PolicySuperMemo PolicyKind = "supermemo"
)

// IsValid reports whether k names a known policy.
func (k PolicyKind) IsValid() bool {
	switch k {
	case PolicyDefault, PolicyLeitner, PolicySuperMemo:
		return true
	}
	return false
}

// Learner holds per-learner engine settings: the active scheduling policy,
// daily capacity, and notification preferences.
type Learner struct {
	ID                  string     `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Policy              PolicyKind `json:"policy" db:"policy"`
	MaxDailyReviews     int        `json:"max_daily_reviews" db:"max_daily_reviews"`
	NotificationEnabled bool       `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int        `json:"notification_hour" db:"notification_hour"` // hour of day (0-23)
	TelegramChatID      int64      `json:"telegram_chat_id" db:"telegram_chat_id"`   // 0 → no Telegram digests
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}
