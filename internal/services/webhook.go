package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

type TelegramRespError struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// ServiceWebhook registers the inbound delivery endpoint with the Bot API.
// Registration is idempotent on the Telegram side, so retrying blindly is
// safe; backoff is uniform regardless of the failure cause.
type ServiceWebhook struct {
	*ServiceHTTP
	token   string
	baseURL string

	setWebhook func(ctx context.Context, endpoint string) error
	sleep      func(d time.Duration)
}

func NewServiceWebhook(token string) *ServiceWebhook {
	service := &ServiceWebhook{
		ServiceHTTP: &ServiceHTTP{},
		token:       token,
		baseURL:     TELEGRAM_API_BASE_URL,
		sleep:       time.Sleep,
	}
	service.setWebhook = service.apiSetWebhook
	return service
}

// RegisterEndpoint tries up to maxAttempts times, sleeping with exponential
// backoff (1s doubling, capped at 30s) between attempts. It returns an error
// only after exhausting every attempt; the caller treats that as a startup
// warning, not a fatal condition.
func (service *ServiceWebhook) RegisterEndpoint(ctx context.Context, endpoint string, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = DEFAULT_WEBHOOK_MAX_ATTEMPTS
	}

	backoff := WEBHOOK_BACKOFF_START
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := service.setWebhook(ctx, endpoint)
		if err == nil {
			log.Printf("✅ webhook set successfully: %s", endpoint)
			return nil
		}

		lastErr = err
		log.Printf("⚠️ attempt %d/%d to set webhook failed: %v", attempt, maxAttempts, err)

		service.sleep(backoff)
		backoff *= 2
		if backoff > WEBHOOK_BACKOFF_CAP {
			backoff = WEBHOOK_BACKOFF_CAP
		}
	}

	return fmt.Errorf("set webhook failed after %d attempts: %w", maxAttempts, lastErr)
}

func (service *ServiceWebhook) apiSetWebhook(ctx context.Context, endpoint string) error {
	resp, err := service.httpClient(0).Get(
		fmt.Sprintf("%s/bot%s/setWebhook?url=%s", service.baseURL, service.token, url.QueryEscape(endpoint)),
		http.Header{},
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body TelegramRespError
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return err
	}

	if !body.OK {
		return fmt.Errorf("setWebhook: %d %s", body.ErrorCode, body.Description)
	}

	return nil
}
