package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SubscriptionStatus string

const (
	SubscriptionWaiting  SubscriptionStatus = "waiting"
	SubscriptionRewarded SubscriptionStatus = "rewarded"
	SubscriptionFailed   SubscriptionStatus = "failed"
	SubscriptionSkipped  SubscriptionStatus = "skipped"
)

// Terminal reports whether the status can never change again.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionRewarded || s == SubscriptionFailed || s == SubscriptionSkipped
}

type MemberRole string

const (
	MemberRoleCreator       MemberRole = "creator"
	MemberRoleAdministrator MemberRole = "administrator"
	MemberRoleMember        MemberRole = "member"
	MemberRoleRestricted    MemberRole = "restricted"
	MemberRoleLeft          MemberRole = "left"
	MemberRoleKicked        MemberRole = "kicked"
)

// Subscribed reports whether the role counts as being in the channel.
func (r MemberRole) Subscribed() bool {
	return r == MemberRoleMember || r == MemberRoleAdministrator || r == MemberRoleCreator
}

// PendingSubscription is a verification task: "credit telegram_id with reward
// once they joined channel". Created in waiting state by the enrollment API,
// driven to exactly one terminal state by the checker, never touched again.
type PendingSubscription struct {
	bun.BaseModel `bun:"table:pending_subscription"`
	ID            string             `bun:"id,pk" json:"id"`
	TelegramID    string             `bun:"telegram_id" json:"telegram_id"`
	Channel       string             `bun:"channel" json:"channel"`
	Reward        int                `bun:"reward" json:"reward"`
	Status        SubscriptionStatus `bun:"status" json:"status"`
	CheckAfter    time.Time          `bun:"check_after" json:"check_after"`
	Error         *string            `bun:"error" json:"error,omitempty"`
	MemberStatus  *string            `bun:"member_status" json:"member_status,omitempty"`
	CreatedAt     time.Time          `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time          `bun:"updated_at" json:"updated_at"`
}

// Chat is the subset of chat metadata the resolver cares about.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}
