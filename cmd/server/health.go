package main

import (
	"context"

	"github.com/gasdist/backend/internal/infrastructure/persistence"
	"github.com/gasdist/backend/internal/interfaces/http/handler"
	"github.com/redis/go-redis/v9"
)

// healthChecks reports the database and, when configured, Redis
func healthChecks(db *persistence.Database, redisClient *redis.Client) []handler.HealthCheck {
	checks := []handler.HealthCheck{{Name: "database", Check: db.Ping}}
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}
	return checks
}
