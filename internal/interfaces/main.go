package interfaces

import (
	"context"
	"time"

	"gemad/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// TelegramGateway is the membership oracle: chat lookup, membership role and
// user notification, all backed by the Bot API.
type TelegramGateway interface {
	ChatByName(ctx context.Context, name string) (*models.Chat, error)
	MemberRole(ctx context.Context, chatID int64, userID int64) (models.MemberRole, error)
	Notify(ctx context.Context, userID int64, text string) error
}

// StatusUpdate is the set of fields a task transition writes.
type StatusUpdate struct {
	Status       models.SubscriptionStatus
	Error        string
	MemberStatus string
}

type PendingStore interface {
	FindDue(ctx context.Context, now time.Time) ([]*models.PendingSubscription, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
	Delete(ctx context.Context, id string) error
}

type UserLedger interface {
	// FindByID returns (nil, nil) when the user has no account yet.
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	// CreditSubscription applies the balance/total_earned increment and the
	// subscribed_channels insertion as one write. It returns false without
	// crediting when the channel is already in the set.
	CreditSubscription(ctx context.Context, userID int64, reward int, channelID string) (bool, error)
}
