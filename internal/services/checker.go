package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gemad/internal/interfaces"
	"gemad/internal/models"

	"github.com/go-redsync/redsync/v4"
	"github.com/samber/do"
)

// ServiceChecker drives pending subscriptions through their single
// waiting → {rewarded, failed, skipped} transition. Tasks are processed
// strictly one at a time; the user's subscribed_channels set is the fencing
// token that makes a replayed or overlapping sweep a no-op instead of a
// double credit.
type ServiceChecker struct {
	pending  interfaces.PendingStore
	ledger   interfaces.UserLedger
	telegram interfaces.TelegramGateway
	resolver *ServiceResolver

	locker         *redsync.Redsync
	taskTimeout    time.Duration
	deleteRewarded bool
}

func NewServiceChecker(container *do.Injector) (*ServiceChecker, error) {
	pending, err := do.Invoke[interfaces.PendingStore](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[interfaces.UserLedger](container)
	if err != nil {
		return nil, err
	}

	telegram, err := do.Invoke[interfaces.TelegramGateway](container)
	if err != nil {
		return nil, err
	}

	resolver, err := do.Invoke[*ServiceResolver](container)
	if err != nil {
		return nil, err
	}

	// sweep mutex is optional; without it overlapping sweeps still converge
	// through the idempotency check
	locker, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		locker = nil
	}

	return &ServiceChecker{
		pending:        pending,
		ledger:         ledger,
		telegram:       telegram,
		resolver:       resolver,
		locker:         locker,
		taskTimeout:    CHECKER_TASK_TIMEOUT,
		deleteRewarded: os.Getenv("CHECKER_DELETE_REWARDED") == "true",
	}, nil
}

// ProcessQueue runs one sweep: every waiting task whose check_after has
// passed is driven to a terminal state. Task-level errors are contained to
// the task; the error return only reports a failure to read the queue.
func (service *ServiceChecker) ProcessQueue(ctx context.Context) error {
	if service.locker != nil {
		mutex := service.locker.NewMutex(LockKeySubscriptionSweep(),
			redsync.WithExpiry(CHECKER_SWEEP_EXPIRY),
			redsync.WithTries(1))
		if err := mutex.Lock(); err != nil {
			log.Printf("sweep already in progress, skipping: %v", err)
			return nil
		}
		//nolint:errcheck
		defer mutex.Unlock()
	}

	now := time.Now().UTC()
	tasks, err := service.pending.FindDue(ctx, now)
	if err != nil {
		return err
	}

	log.Printf("🔄 queue iteration started: %d due tasks", len(tasks))
	for _, task := range tasks {
		taskCtx, cancel := context.WithTimeout(ctx, service.taskTimeout)
		if err := service.processTask(taskCtx, task); err != nil {
			log.Printf("❌ task %s: %v", task.ID, err)
		}
		cancel()
	}

	return nil
}

func (service *ServiceChecker) processTask(ctx context.Context, task *models.PendingSubscription) error {
	userID, err := strconv.ParseInt(strings.TrimSpace(task.TelegramID), 10, 64)
	if err != nil {
		return service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status: models.SubscriptionFailed,
			Error:  "invalid telegramId",
		})
	}

	chatID, err := service.resolver.Resolve(ctx, task.Channel)
	if err != nil {
		return service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status: models.SubscriptionFailed,
			Error:  "channel_resolve_failed",
		})
	}
	channelID := strconv.FormatInt(chatID, 10)

	user, err := service.ledger.FindByID(ctx, userID)
	if err != nil {
		// a read failure here is not terminal, the membership check decides
		log.Printf("⚠️ error reading user %d for task %s: %v", userID, task.ID, err)
	}
	if user.Subscribed(channelID) {
		return service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status: models.SubscriptionSkipped,
		})
	}

	role, err := service.telegram.MemberRole(ctx, chatID, userID)
	if err != nil {
		return service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status: models.SubscriptionFailed,
			Error:  fmt.Sprintf("get_chat_member_error: %s", err),
		})
	}

	if !role.Subscribed() {
		return service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status:       models.SubscriptionFailed,
			MemberStatus: string(role),
		})
	}

	credited, err := service.ledger.CreditSubscription(ctx, userID, task.Reward, channelID)
	if err != nil {
		return service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status: models.SubscriptionFailed,
			Error:  fmt.Sprintf("ledger_update_error: %s", err),
		})
	}

	if !credited {
		// the fencing token was already in place, a concurrent sweep won
		return service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status: models.SubscriptionSkipped,
		})
	}

	if service.deleteRewarded {
		if err := service.pending.Delete(ctx, task.ID); err != nil {
			log.Printf("⚠️ failed to delete rewarded task %s: %v", task.ID, err)
		}
	} else {
		if err := service.pending.UpdateStatus(ctx, task.ID, interfaces.StatusUpdate{
			Status: models.SubscriptionRewarded,
		}); err != nil {
			log.Printf("⚠️ failed to mark task %s rewarded: %v", task.ID, err)
		}
	}

	// reward and notification are decoupled, a failed send never rolls back
	if err := service.telegram.Notify(ctx, userID, fmt.Sprintf(textRewarded, task.Reward)); err != nil {
		log.Printf("⚠️ failed to notify user %d: %v", userID, err)
	}

	log.Printf("✅ task %s: user %d rewarded %d for channel %s", task.ID, userID, task.Reward, channelID)
	return nil
}
