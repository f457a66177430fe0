package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestWebhook(setWebhook func(ctx context.Context, endpoint string) error) (*ServiceWebhook, *[]time.Duration) {
	slept := &[]time.Duration{}
	service := &ServiceWebhook{
		ServiceHTTP: &ServiceHTTP{},
		token:       "test-token",
		baseURL:     TELEGRAM_API_BASE_URL,
		setWebhook:  setWebhook,
		sleep: func(d time.Duration) {
			*slept = append(*slept, d)
		},
	}
	return service, slept
}

func TestRegisterEndpointFirstTry(t *testing.T) {
	calls := 0
	service, slept := newTestWebhook(func(ctx context.Context, endpoint string) error {
		calls++
		return nil
	})

	if err := service.RegisterEndpoint(context.Background(), "https://example.com/webhook", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one attempt, got %d", calls)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no backoff, got %v", *slept)
	}
}

func TestRegisterEndpointBackoffDoublesAndCaps(t *testing.T) {
	service, slept := newTestWebhook(func(ctx context.Context, endpoint string) error {
		return errors.New("telegram unavailable")
	})

	err := service.RegisterEndpoint(context.Background(), "https://example.com/webhook", 7)
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Fatalf("sleep %d: expected %v, got %v", i, d, (*slept)[i])
		}
	}
}

func TestRegisterEndpointRecoversMidway(t *testing.T) {
	calls := 0
	service, _ := newTestWebhook(func(ctx context.Context, endpoint string) error {
		calls++
		if calls < 3 {
			return errors.New("telegram unavailable")
		}
		return nil
	})

	if err := service.RegisterEndpoint(context.Background(), "https://example.com/webhook", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected three attempts, got %d", calls)
	}
}

func TestRegisterEndpointDefaultAttempts(t *testing.T) {
	calls := 0
	service, _ := newTestWebhook(func(ctx context.Context, endpoint string) error {
		calls++
		return errors.New("telegram unavailable")
	})

	if err := service.RegisterEndpoint(context.Background(), "https://example.com/webhook", 0); err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls != DEFAULT_WEBHOOK_MAX_ATTEMPTS {
		t.Fatalf("expected %d attempts, got %d", DEFAULT_WEBHOOK_MAX_ATTEMPTS, calls)
	}
}
