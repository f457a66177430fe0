package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the account ledger record. It is upserted on the first rewarded
// subscription and only ever grows: balance and total_earned are monotonic,
// subscribed_channels holds every channel the user has been credited for.
type User struct {
	bun.BaseModel      `bun:"table:user"`
	ID                 int64     `bun:"id,pk" json:"id"`
	Balance            int       `bun:"balance" json:"balance"`
	TotalEarned        int       `bun:"total_earned" json:"total_earned"`
	SubscribedChannels []string  `bun:"subscribed_channels,array" json:"subscribed_channels"`
	CreatedAt          time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at" json:"updated_at"`
}

// Subscribed reports whether the channel is already credited for this user.
func (user *User) Subscribed(channelID string) bool {
	if user == nil {
		return false
	}
	for _, c := range user.SubscribedChannels {
		if c == channelID {
			return true
		}
	}
	return false
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	IsBot        bool   `json:"is_bot"`
	IsPremium    bool   `json:"is_premium"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	PhotoURL     string `json:"photo_url"`
}
