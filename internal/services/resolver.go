package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gemad/internal/datastore/redis_store"
	"gemad/internal/interfaces"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// ServiceResolver maps a raw channel reference (numeric id, bare name or
// "@name") to the canonical chat id the Bot API assigned to it. Results are
// cached in redis when a client is available but never persisted; an
// unresolvable reference is a normal outcome, reported as errorx.NotExist.
type ServiceResolver struct {
	telegram interfaces.TelegramGateway
	redisDB  redis.UniversalClient
}

func NewServiceResolver(container *do.Injector) (*ServiceResolver, error) {
	telegram, err := do.Invoke[interfaces.TelegramGateway](container)
	if err != nil {
		return nil, err
	}

	// cache is optional; without it every sweep probes the Bot API again
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-cache")
	if err != nil {
		redisDB = nil
	}

	return &ServiceResolver{telegram, redisDB}, nil
}

func (service *ServiceResolver) Resolve(ctx context.Context, raw string) (int64, error) {
	chs := strings.TrimSpace(raw)
	if chs == "" {
		return 0, errorx.Wrap(errors.New("empty channel reference"), errorx.Invalid)
	}

	if chatID, err := strconv.ParseInt(chs, 10, 64); err == nil {
		return chatID, nil
	}

	if service.redisDB != nil {
		if chatID, err := redis_store.GetResolvedChannel(ctx, service.redisDB, chs); err == nil {
			return chatID, nil
		}
	}

	candidates := []string{chs}
	if !strings.HasPrefix(chs, "@") {
		candidates = append(candidates, "@"+chs)
	}

	for _, candidate := range candidates {
		chat, err := service.telegram.ChatByName(ctx, candidate)
		if err != nil {
			log.Printf("⚠️ get_chat(%q) failed: %v", candidate, err)
			continue
		}

		if service.redisDB != nil {
			//nolint:errcheck
			redis_store.SetResolvedChannel(ctx, service.redisDB, chs, chat.ID)
		}

		return chat.ID, nil
	}

	return 0, errorx.Wrap(fmt.Errorf("could not resolve channel %q", raw), errorx.NotExist)
}
