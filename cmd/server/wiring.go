package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	accountservice "memberpanel/internal/account/service"
	accountstore "memberpanel/internal/account/store"
	"memberpanel/internal/application/adapters"
	appmetrics "memberpanel/internal/application/metrics"
	appservice "memberpanel/internal/application/service"
	appstore "memberpanel/internal/application/store/application"
	scopestore "memberpanel/internal/application/store/scope"
	"memberpanel/internal/directory/cache"
	dirmodels "memberpanel/internal/directory/models"
	dirstore "memberpanel/internal/directory/store"
	"memberpanel/internal/platform/config"
	"memberpanel/internal/platform/migrations"
	"memberpanel/internal/platform/postgres"
	"memberpanel/internal/platform/redis"
	id "memberpanel/pkg/domain"
	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/platform/audit/outbox"
	"memberpanel/pkg/platform/audit/publishers/compliance"
	"memberpanel/pkg/platform/audit/publishers/kafka"
	auditmemory "memberpanel/pkg/platform/audit/store/memory"
	auditpostgres "memberpanel/pkg/platform/audit/store/postgres"
)

type directoryStore interface {
	dirstore.Writer
	FindMember(ctx context.Context, memberID id.MemberID) (*dirmodels.Member, error)
	FindRole(ctx context.Context, roleID id.RoleID) (*dirmodels.Role, error)
	FindDistrict(ctx context.Context, districtID id.DistrictID) (*dirmodels.District, error)
}

type accountStore interface {
	accountservice.Store
	adapters.LinkedAccounts
}

// stores is one consistent storage backend: all PostgreSQL or all in-memory.
type stores struct {
	applications appservice.ApplicationStore
	scopes       appservice.ScopeStore
	directory    directoryStore
	accounts     accountStore
	audit        audit.Store
	tx           appservice.StoreTx
}

// application is everything main runs and serves.
type application struct {
	storage  string
	service  *appservice.Service
	relay    *outbox.Relay
	db       *sql.DB
	redis    *redis.Client
	producer *kafka.Producer
}

func (a *application) close() {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*application, error) {
	app := &application{storage: "memory"}
	var st stores

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.storage = "postgres"
		if err := migrations.Up(db); err != nil {
			app.close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		outboxStore := auditpostgres.New(db)
		st = stores{
			applications: appstore.NewPostgres(db),
			scopes:       scopestore.NewPostgres(db),
			directory:    dirstore.NewPostgres(db),
			accounts:     accountstore.NewPostgres(db),
			audit:        outboxStore,
			tx:           postgres.NewTx(db, 0),
		}

		if len(cfg.Kafka.Brokers) > 0 {
			producer, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			if err != nil {
				app.close()
				return nil, err
			}
			app.producer = producer
			if err := producer.EnsureTopic(ctx); err != nil {
				app.close()
				return nil, err
			}
			app.relay = outbox.NewRelay(outboxStore, producer,
				outbox.WithBatchSize(cfg.Outbox.BatchSize),
				outbox.WithPollInterval(cfg.Outbox.PollInterval),
				outbox.WithLogger(log),
			)
		} else {
			log.Warn("no kafka brokers configured; audit events stay in the outbox")
		}
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
		st = stores{
			applications: appstore.NewInMemory(),
			scopes:       scopestore.NewInMemory(),
			directory:    dirstore.NewInMemory(),
			accounts:     accountstore.NewInMemory(),
			audit:        auditmemory.NewInMemoryStore(),
			tx:           appservice.NewShardedTx(0),
		}
	}

	if cfg.SeedDemoData {
		demo, err := dirstore.SeedDemo(ctx, st.directory)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("seed directory: %w", err)
		}
		log.Info("seeded demo directory",
			"members", len(demo.Members),
			"head_office_role", demo.HeadOfficeRole,
			"provincial_rep_role", demo.ProvincialRepRole,
		)
	}

	var districts appservice.DistrictLookup = st.directory
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		app.close()
		return nil, err
	}
	if redisClient != nil {
		app.redis = redisClient
		districts = cache.NewDistrictCache(redisClient.Client, st.directory, cfg.Redis.CacheTTL, cache.WithLogger(log))
	}

	accounts := accountservice.New(st.accounts, accountservice.WithLogger(log))
	app.service = appservice.New(
		st.applications,
		st.scopes,
		adapters.NewMemberLookup(st.directory, st.accounts),
		st.directory,
		districts,
		adapters.NewAccountProvisioner(accounts),
		appservice.WithLogger(log),
		appservice.WithTx(st.tx),
		appservice.WithAuditPublisher(compliance.New(st.audit, compliance.WithLogger(log))),
		appservice.WithMetrics(appmetrics.New()),
	)
	return app, nil
}
