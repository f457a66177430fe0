package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gemad/internal/datastore"
	"gemad/internal/interfaces"
	"gemad/internal/models"
	"gemad/internal/pkg/caching"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceSubscription is the enrollment side: it creates waiting tasks for
// the checker and serves the mini app's read endpoints.
type ServiceSubscription struct {
	db      *bun.DB
	cache   caching.Cache
	limiter interfaces.Limiter
}

func NewServiceSubscription(container *do.Injector) (*ServiceSubscription, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	lim, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	return &ServiceSubscription{db, cache, lim}, nil
}

func (service *ServiceSubscription) Enroll(ctx context.Context, userID int64, channel string, reward int) (*models.PendingSubscription, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errorx.Wrap(errors.New("missing channel"), errorx.Invalid)
	}

	err := service.limiter.Allow(ctx, LimitKeyUserEnroll(userID), redis_rate.PerMinute(ENROLL_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		if errors.Is(err, limiter.ErrRateLimited) {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, err
	}

	now := time.Now().UTC()
	sub := &models.PendingSubscription{
		TelegramID: strconv.FormatInt(userID, 10),
		Channel:    channel,
		Reward:     reward,
		Status:     models.SubscriptionWaiting,
		CheckAfter: now.Add(SUBSCRIPTION_CHECK_DELAY),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := datastore.CreatePendingSubscription(ctx, service.db, sub); err != nil {
		return nil, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserSubscriptions(userID))

	return sub, nil
}

func (service *ServiceSubscription) GetUserSubscriptions(ctx context.Context, userID int64) ([]*models.PendingSubscription, error) {
	callback := func() ([]*models.PendingSubscription, error) {
		return datastore.GetPendingSubscriptionsByUser(ctx, service.db, strconv.FormatInt(userID, 10))
	}

	return caching.UseCache(ctx, service.cache, DBKeyUserSubscriptions(userID), CACHE_TTL_5_SECONDS, callback)
}

// Me returns the user's ledger account, or an empty account when nothing has
// been credited yet.
func (service *ServiceSubscription) Me(ctx context.Context, userID int64) (*models.User, error) {
	callback := func() (*models.User, error) {
		user, err := datastore.FindUserByID(ctx, service.db, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			user = &models.User{ID: userID, SubscribedChannels: []string{}}
		}
		return user, nil
	}

	return caching.UseCache(ctx, service.cache, DBKeyUser(userID), CACHE_TTL_5_SECONDS, callback)
}
