package services

import (
	"fmt"
	"time"
)

const (
	TELEGRAM_API_BASE_URL = "https://api.telegram.org"

	// sweep cadence in seconds, overridden by CHECK_INTERVAL
	DEFAULT_CHECK_INTERVAL = 10

	DEFAULT_WEBHOOK_MAX_ATTEMPTS = 5
	WEBHOOK_BACKOFF_START        = 1 * time.Second
	WEBHOOK_BACKOFF_CAP          = 30 * time.Second

	// a freshly enrolled task only becomes due after this grace period,
	// giving the user time to actually join
	SUBSCRIPTION_CHECK_DELAY = 10 * time.Second

	// a single hung Bot API call must not stall the whole sweep
	CHECKER_TASK_TIMEOUT = 30 * time.Second
	CHECKER_SWEEP_EXPIRY = 2 * time.Minute

	ENROLL_RATE_LIMIT_PER_MINUTE = 10

	CACHE_TTL_5_SECONDS = 5 * time.Second
	CACHE_TTL_5_MINS    = 5 * time.Minute

	textRewarded = "🎉 You were subscribed and earned %d⭐!"
)

func DBKeyUser(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func DBKeyUserSubscriptions(userID int64) string {
	return fmt.Sprintf("subscription:user:%d", userID)
}

func LimitKeyUserEnroll(userID int64) string {
	return fmt.Sprintf("limit:enroll:%d", userID)
}

func LockKeySubscriptionSweep() string {
	return "lock:subscription-sweep"
}
