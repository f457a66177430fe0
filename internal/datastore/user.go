package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gemad/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table "user"
			alter column created_at set default current_timestamp;
		alter table "user"
			alter column subscribed_channels set default '{}';`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// if the user is not found, return nil
func FindUserByID(ctx context.Context, db *bun.DB, userID int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// CreditSubscriptionReward upserts the account and applies the balance and
// total_earned increments together with the subscribed_channels insertion as
// a single write. The WHERE on the conflict update makes a channel that is
// already in the set a no-op, so a replayed credit can never double-count.
func CreditSubscriptionReward(ctx context.Context, db *bun.DB, userID int64, reward int, channelID string) (bool, error) {
	now := time.Now().UTC()
	user := &models.User{
		ID:                 userID,
		Balance:            reward,
		TotalEarned:        reward,
		SubscribedChannels: []string{channelID},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	res, err := db.NewInsert().Model(user).
		On("CONFLICT (id) DO UPDATE").
		Set(`balance = "user".balance + EXCLUDED.balance`).
		Set(`total_earned = "user".total_earned + EXCLUDED.total_earned`).
		Set(`subscribed_channels = "user".subscribed_channels || EXCLUDED.subscribed_channels`).
		Set(`updated_at = EXCLUDED.updated_at`).
		Where(`NOT ("user".subscribed_channels @> EXCLUDED.subscribed_channels)`).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// LedgerBun adapts the package functions to interfaces.UserLedger.
type LedgerBun struct {
	db *bun.DB
}

func NewLedgerBun(db *bun.DB) *LedgerBun {
	return &LedgerBun{db}
}

func (l *LedgerBun) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	return FindUserByID(ctx, l.db, userID)
}

func (l *LedgerBun) CreditSubscription(ctx context.Context, userID int64, reward int, channelID string) (bool, error) {
	return CreditSubscriptionReward(ctx, l.db, userID, reward, channelID)
}
