package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
	"github.com/sweetshop/sweetshop-api/internal/infrastructure/db/memory"
	mongostore "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/mongo"
	redisstore "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/sweetshop-api/internal/pkg/config"
	"github.com/sweetshop/sweetshop-api/pkg/logger"
)

const disconnectTimeout = 5 * time.Second

// stores bundles the repositories of the selected backend together with the
// readiness probes and the cleanup of its connections.
type stores struct {
	users     ports.UserRepository
	sweets    ports.SweetRepository
	movements ports.MovementRepository
	guard     ports.IdempotencyGuard

	probes  map[string]handler.Probe
	closers []func(context.Context) error
}

func (s *stores) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i](ctx)
	}
}

// loadConfig reads the configuration and initialises the process logger.
func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sweetshop",
	})
	return cfg, log, nil
}

// openStores connects the configured store and, when REDIS_ADDR is set, the
// idempotency guard.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{probes: map[string]handler.Probe{}}

	switch cfg.Store {
	case config.StoreMemory:
		db := memory.New()
		s.users, s.sweets, s.movements = db.Users(), db.Sweets(), db.Movements()
		log.Warn().Msg("using in-memory store, data is lost on exit")

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Disconnect)
		s.probes["mongodb"] = mongostore.Pinger(client)

		repos := mongostore.NewRepositories(db)
		if err := repos.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.users, s.sweets, s.movements = repos.Users, repos.Sweets, repos.Movements
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	}

	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, idempotency keys disabled")
		return s, nil
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("idempotency store: %w", err)
	}
	s.closers = append(s.closers, closeRedis(rdb))
	s.probes["redis"] = redisstore.Pinger(rdb)
	s.guard = redisstore.NewIdempotencyGuard(rdb)
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	return s, nil
}

func closeRedis(rdb *goredis.Client) func(context.Context) error {
	return func(context.Context) error { return rdb.Close() }
}

func adminInput(cfg *config.Config) ports.RegisterInput {
	return ports.RegisterInput{
		FirstName: cfg.Admin.FirstName,
		LastName:  cfg.Admin.LastName,
		Email:     cfg.Admin.Email,
		Password:  cfg.Admin.Password,
	}
}
