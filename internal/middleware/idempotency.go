package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/expense-pilot/expense_pilot/internal/auth"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Idempotency wraps an authenticated handler so an unsafe request carrying
// an Idempotency-Key already seen for the same user, method and path gets the
// stored response instead of running again. Requests without the header pass
// straight through, and so does everything when cache is nil. Only responses
// below 500 are stored.
//
// It must sit behind RequireIdentity: the cache key is scoped by the
// authenticated user id, never by anything the client sends.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) func(IdentityHandler) IdentityHandler {
	return func(next IdentityHandler) IdentityHandler {
		if cache == nil {
			return next
		}
		return func(c *fiber.Ctx, who auth.Identity) error {
			return idempotent(c, who, cache, ttl, logger, next)
		}
	}
}

func idempotent(c *fiber.Ctx, who auth.Identity, cache *redis.Client, ttl time.Duration, logger *slog.Logger, next IdentityHandler) error {
	switch strings.ToUpper(c.Method()) {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return next(c, who)
	}

	key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
	if key == "" {
		return next(c, who)
	}
	if len(key) > 255 {
		return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key must not exceed 255 characters")
	}

	cacheKey := idempotencyCacheKey(who.UserID, c.Method(), c.Path(), key)

	ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
	defer cancel()

	cached, err := cache.Get(ctx, cacheKey).Result()
	if err == nil {
		if cached == inProgressMarker {
			return fiber.NewError(fiber.StatusConflict, "A request with this Idempotency-Key is still being processed")
		}

		var stored storedResponse
		if err := json.Unmarshal([]byte(cached), &stored); err != nil {
			logger.Warn("failed to decode stored idempotent response", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusConflict, "Duplicate request")
		}

		for header, value := range stored.Headers {
			if strings.EqualFold(header, fiber.HeaderContentLength) {
				continue
			}
			c.Set(header, value)
		}
		c.Set("Idempotent-Replayed", "true")
		return c.Status(stored.Status).SendString(stored.Body)
	}

	if !errors.Is(err, redis.Nil) {
		logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
	}

	reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
	if err != nil {
		logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
	}
	if !reserved {
		return fiber.NewError(fiber.StatusConflict, "A request with this Idempotency-Key is still being processed")
	}

	release := func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer cancel()
		cache.Del(cleanupCtx, cacheKey)
	}

	if err := next(c, who); err != nil {
		release()
		return err
	}

	status := c.Response().StatusCode()
	if status >= fiber.StatusInternalServerError {
		release()
		return nil
	}

	stored := storedResponse{
		Status:  status,
		Body:    string(c.Response().Body()),
		Headers: map[string]string{},
	}
	c.Response().Header.VisitAll(func(k, v []byte) {
		stored.Headers[string(k)] = string(v)
	})

	payload, err := json.Marshal(stored)
	if err != nil {
		logger.Error("failed to encode idempotent response", slog.String("key", key), slog.Any("error", err))
		release()
		return nil
	}

	persistCtx, persistCancel := context.WithTimeout(context.Background(), idempotencyTimeout)
	defer persistCancel()
	if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
		logger.Error("failed to persist idempotent response", slog.String("key", key), slog.Any("error", err))
		cache.Del(persistCtx, cacheKey)
	}

	return nil
}

// idempotencyCacheKey scopes key to the user and the route so two users
// reusing the same key never see each other's responses.
func idempotencyCacheKey(userID, method, path, key string) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return idempotencyPrefix + hex.EncodeToString(h.Sum(nil))
}
