package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gemad/internal/interfaces"
	"gemad/internal/models"
)

type fakeGateway struct {
	chats     map[string]*models.Chat
	roles     map[string]models.MemberRole
	roleErr   error
	chatCalls []string
	notified  []int64
}

func (f *fakeGateway) ChatByName(ctx context.Context, name string) (*models.Chat, error) {
	f.chatCalls = append(f.chatCalls, name)
	chat, ok := f.chats[name]
	if !ok {
		return nil, errors.New("chat not found")
	}
	return chat, nil
}

func (f *fakeGateway) MemberRole(ctx context.Context, chatID int64, userID int64) (models.MemberRole, error) {
	if f.roleErr != nil {
		return "", f.roleErr
	}
	role, ok := f.roles[fmt.Sprintf("%d:%d", chatID, userID)]
	if !ok {
		return models.MemberRoleLeft, nil
	}
	return role, nil
}

func (f *fakeGateway) Notify(ctx context.Context, userID int64, text string) error {
	f.notified = append(f.notified, userID)
	return nil
}

type fakePending struct {
	tasks   []*models.PendingSubscription
	updates map[string]interfaces.StatusUpdate
	deleted []string
}

func newFakePending(tasks ...*models.PendingSubscription) *fakePending {
	return &fakePending{tasks: tasks, updates: map[string]interfaces.StatusUpdate{}}
}

func (f *fakePending) FindDue(ctx context.Context, now time.Time) ([]*models.PendingSubscription, error) {
	var due []*models.PendingSubscription
	for _, task := range f.tasks {
		if task.Status == models.SubscriptionWaiting && !task.CheckAfter.After(now) {
			due = append(due, task)
		}
	}
	return due, nil
}

func (f *fakePending) UpdateStatus(ctx context.Context, id string, update interfaces.StatusUpdate) error {
	f.updates[id] = update
	for _, task := range f.tasks {
		if task.ID == id && task.Status == models.SubscriptionWaiting {
			task.Status = update.Status
		}
	}
	return nil
}

func (f *fakePending) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLedger struct {
	users     map[int64]*models.User
	creditErr error
	credits   int
}

func newFakeLedger(users ...*models.User) *fakeLedger {
	f := &fakeLedger{users: map[int64]*models.User{}}
	for _, user := range users {
		f.users[user.ID] = user
	}
	return f
}

func (f *fakeLedger) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	return f.users[userID], nil
}

func (f *fakeLedger) CreditSubscription(ctx context.Context, userID int64, reward int, channelID string) (bool, error) {
	if f.creditErr != nil {
		return false, f.creditErr
	}
	user, ok := f.users[userID]
	if !ok {
		user = &models.User{ID: userID}
		f.users[userID] = user
	}
	if user.Subscribed(channelID) {
		return false, nil
	}
	user.Balance += reward
	user.TotalEarned += reward
	user.SubscribedChannels = append(user.SubscribedChannels, channelID)
	f.credits++
	return true, nil
}

func newTestChecker(pending *fakePending, ledger *fakeLedger, gateway *fakeGateway) *ServiceChecker {
	return &ServiceChecker{
		pending:     pending,
		ledger:      ledger,
		telegram:    gateway,
		resolver:    &ServiceResolver{telegram: gateway},
		taskTimeout: time.Second,
	}
}

func waitingTask(id, telegramID, channel string) *models.PendingSubscription {
	return &models.PendingSubscription{
		ID:         id,
		TelegramID: telegramID,
		Channel:    channel,
		Reward:     15,
		Status:     models.SubscriptionWaiting,
		CheckAfter: time.Now().Add(-time.Minute),
	}
}

func TestProcessTaskInvalidTelegramID(t *testing.T) {
	gateway := &fakeGateway{}
	pending := newFakePending()
	checker := newTestChecker(pending, newFakeLedger(), gateway)

	task := waitingTask("t1", "not-a-number", "news")
	if err := checker.processTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	update := pending.updates["t1"]
	if update.Status != models.SubscriptionFailed {
		t.Fatalf("expected failed, got %s", update.Status)
	}
	if update.Error != "invalid telegramId" {
		t.Fatalf("unexpected diagnostic: %q", update.Error)
	}
	if len(gateway.chatCalls) != 0 {
		t.Fatalf("expected no chat lookups, got %v", gateway.chatCalls)
	}
}

func TestProcessTaskUnresolvableChannel(t *testing.T) {
	gateway := &fakeGateway{roles: map[string]models.MemberRole{"1:42": models.MemberRoleMember}}
	pending := newFakePending()
	ledger := newFakeLedger()
	checker := newTestChecker(pending, ledger, gateway)

	task := waitingTask("t1", "42", "ghost")
	if err := checker.processTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	update := pending.updates["t1"]
	if update.Status != models.SubscriptionFailed {
		t.Fatalf("expected failed, got %s", update.Status)
	}
	if update.Error != "channel_resolve_failed" {
		t.Fatalf("unexpected diagnostic: %q", update.Error)
	}
	if ledger.credits != 0 {
		t.Fatalf("expected no credits, got %d", ledger.credits)
	}
}

func TestProcessTaskAlreadyCredited(t *testing.T) {
	gateway := &fakeGateway{
		chats: map[string]*models.Chat{"news": {ID: -100123, Type: "channel"}},
	}
	pending := newFakePending()
	ledger := newFakeLedger(&models.User{ID: 42, SubscribedChannels: []string{"-100123"}})
	checker := newTestChecker(pending, ledger, gateway)

	task := waitingTask("t1", "42", "news")
	if err := checker.processTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pending.updates["t1"].Status != models.SubscriptionSkipped {
		t.Fatalf("expected skipped, got %s", pending.updates["t1"].Status)
	}
	if ledger.credits != 0 {
		t.Fatalf("expected no credits, got %d", ledger.credits)
	}
	if len(gateway.notified) != 0 {
		t.Fatalf("expected no notification, got %v", gateway.notified)
	}
}

func TestProcessTaskNotMember(t *testing.T) {
	gateway := &fakeGateway{
		chats: map[string]*models.Chat{"news": {ID: -100123, Type: "channel"}},
		roles: map[string]models.MemberRole{"-100123:42": models.MemberRoleLeft},
	}
	pending := newFakePending()
	checker := newTestChecker(pending, newFakeLedger(), gateway)

	task := waitingTask("t1", "42", "news")
	if err := checker.processTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	update := pending.updates["t1"]
	if update.Status != models.SubscriptionFailed {
		t.Fatalf("expected failed, got %s", update.Status)
	}
	if update.MemberStatus != string(models.MemberRoleLeft) {
		t.Fatalf("expected member status recorded, got %q", update.MemberStatus)
	}
}

func TestProcessTaskMemberRoleError(t *testing.T) {
	gateway := &fakeGateway{
		chats:   map[string]*models.Chat{"news": {ID: -100123, Type: "channel"}},
		roleErr: errors.New("bot is not a member of the channel chat"),
	}
	pending := newFakePending()
	checker := newTestChecker(pending, newFakeLedger(), gateway)

	task := waitingTask("t1", "42", "news")
	if err := checker.processTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	update := pending.updates["t1"]
	if update.Status != models.SubscriptionFailed {
		t.Fatalf("expected failed, got %s", update.Status)
	}
	if !strings.HasPrefix(update.Error, "get_chat_member_error: ") {
		t.Fatalf("unexpected diagnostic: %q", update.Error)
	}
}

func TestProcessTaskRewards(t *testing.T) {
	gateway := &fakeGateway{
		chats: map[string]*models.Chat{"news": {ID: -100123, Type: "channel"}},
		roles: map[string]models.MemberRole{"-100123:42": models.MemberRoleMember},
	}
	pending := newFakePending()
	ledger := newFakeLedger()
	checker := newTestChecker(pending, ledger, gateway)

	task := waitingTask("t1", "42", "news")
	if err := checker.processTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pending.updates["t1"].Status != models.SubscriptionRewarded {
		t.Fatalf("expected rewarded, got %s", pending.updates["t1"].Status)
	}

	user := ledger.users[42]
	if user == nil || user.Balance != 15 || user.TotalEarned != 15 {
		t.Fatalf("unexpected ledger state: %+v", user)
	}
	if !user.Subscribed("-100123") {
		t.Fatalf("expected channel in subscribed set, got %v", user.SubscribedChannels)
	}
	if len(gateway.notified) != 1 || gateway.notified[0] != 42 {
		t.Fatalf("expected one notification to 42, got %v", gateway.notified)
	}
}

func TestProcessTaskDeleteRewarded(t *testing.T) {
	gateway := &fakeGateway{
		chats: map[string]*models.Chat{"news": {ID: -100123, Type: "channel"}},
		roles: map[string]models.MemberRole{"-100123:42": models.MemberRoleMember},
	}
	pending := newFakePending()
	checker := newTestChecker(pending, newFakeLedger(), gateway)
	checker.deleteRewarded = true

	task := waitingTask("t1", "42", "news")
	if err := checker.processTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pending.deleted) != 1 || pending.deleted[0] != "t1" {
		t.Fatalf("expected task deleted, got %v", pending.deleted)
	}
	if _, ok := pending.updates["t1"]; ok {
		t.Fatalf("expected no status update for deleted task")
	}
}

func TestProcessQueueCreditsOnce(t *testing.T) {
	gateway := &fakeGateway{
		chats: map[string]*models.Chat{"news": {ID: -100123, Type: "channel"}},
		roles: map[string]models.MemberRole{"-100123:42": models.MemberRoleMember},
	}
	ledger := newFakeLedger()

	// two enrollments of the same pair, both due
	pending := newFakePending(
		waitingTask("t1", "42", "news"),
		waitingTask("t2", "42", "@news"),
	)
	gateway.chats["@news"] = gateway.chats["news"]

	checker := newTestChecker(pending, ledger, gateway)
	if err := checker.ProcessQueue(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ledger.credits != 1 {
		t.Fatalf("expected exactly one credit, got %d", ledger.credits)
	}
	if ledger.users[42].Balance != 15 {
		t.Fatalf("expected balance 15, got %d", ledger.users[42].Balance)
	}
	if pending.updates["t1"].Status != models.SubscriptionRewarded {
		t.Fatalf("expected first task rewarded, got %s", pending.updates["t1"].Status)
	}
	if pending.updates["t2"].Status != models.SubscriptionSkipped {
		t.Fatalf("expected second task skipped, got %s", pending.updates["t2"].Status)
	}
}

func TestProcessQueueIgnoresFutureTasks(t *testing.T) {
	gateway := &fakeGateway{
		chats: map[string]*models.Chat{"news": {ID: -100123, Type: "channel"}},
		roles: map[string]models.MemberRole{"-100123:42": models.MemberRoleMember},
	}
	task := waitingTask("t1", "42", "news")
	task.CheckAfter = time.Now().Add(time.Hour)
	pending := newFakePending(task)
	ledger := newFakeLedger()

	checker := newTestChecker(pending, ledger, gateway)
	if err := checker.ProcessQueue(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ledger.credits != 0 {
		t.Fatalf("expected no credits, got %d", ledger.credits)
	}
	if len(pending.updates) != 0 {
		t.Fatalf("expected no status updates, got %v", pending.updates)
	}
}
