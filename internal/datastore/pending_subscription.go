package datastore

import (
	"context"
	"time"

	"gemad/internal/interfaces"
	"gemad/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DEFAULT_REWARD is applied at the store boundary when a task carries no
// usable reward amount.
const DEFAULT_REWARD = 15

func CreateTablePendingSubscription(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.PendingSubscription)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PendingSubscription)(nil)).Index("index_pending_subscription_status_check_after").IfNotExists().Column("status", "check_after").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PendingSubscription)(nil)).Index("index_pending_subscription_telegram_id").IfNotExists().Column("telegram_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreatePendingSubscription(ctx context.Context, db *bun.DB, sub *models.PendingSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionWaiting
	}
	if sub.Reward <= 0 {
		sub.Reward = DEFAULT_REWARD
	}

	_, err := db.NewInsert().Model(sub).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindDuePendingSubscriptions(ctx context.Context, db *bun.DB, now time.Time) ([]*models.PendingSubscription, error) {
	var subs []*models.PendingSubscription
	err := db.NewSelect().Model(&subs).
		Where("status = ?", models.SubscriptionWaiting).
		Where("check_after <= ?", now).
		Order("check_after ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, sub := range subs {
		if sub.Reward <= 0 {
			sub.Reward = DEFAULT_REWARD
		}
	}

	return subs, nil
}

func GetPendingSubscriptionsByUser(ctx context.Context, db *bun.DB, telegramID string) ([]*models.PendingSubscription, error) {
	var subs []*models.PendingSubscription
	err := db.NewSelect().Model(&subs).
		Where("telegram_id = ?", telegramID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return subs, nil
}

// UpdatePendingSubscriptionStatus writes a task transition. The status guard
// keeps terminal rows immutable even if two sweeps race on the same task.
func UpdatePendingSubscriptionStatus(ctx context.Context, db *bun.DB, id string, update interfaces.StatusUpdate) error {
	q := db.NewUpdate().Model((*models.PendingSubscription)(nil)).
		Set("status = ?", update.Status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", models.SubscriptionWaiting)

	if update.Error != "" {
		q = q.Set("error = ?", update.Error)
	}
	if update.MemberStatus != "" {
		q = q.Set("member_status = ?", update.MemberStatus)
	}

	_, err := q.Exec(ctx)
	return err
}

func DeletePendingSubscription(ctx context.Context, db *bun.DB, id string) error {
	_, err := db.NewDelete().Model((*models.PendingSubscription)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// PendingStoreBun adapts the package functions to interfaces.PendingStore.
type PendingStoreBun struct {
	db *bun.DB
}

func NewPendingStoreBun(db *bun.DB) *PendingStoreBun {
	return &PendingStoreBun{db}
}

func (s *PendingStoreBun) FindDue(ctx context.Context, now time.Time) ([]*models.PendingSubscription, error) {
	return FindDuePendingSubscriptions(ctx, s.db, now)
}

func (s *PendingStoreBun) UpdateStatus(ctx context.Context, id string, update interfaces.StatusUpdate) error {
	return UpdatePendingSubscriptionStatus(ctx, s.db, id, update)
}

func (s *PendingStoreBun) Delete(ctx context.Context, id string) error {
	return DeletePendingSubscription(ctx, s.db, id)
}
