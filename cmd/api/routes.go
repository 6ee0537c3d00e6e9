package main

import (
	"database/sql"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"outdial-platform/internal/assistants"
	"outdial-platform/internal/auth"
	"outdial-platform/internal/callops"
	"outdial-platform/internal/campaigns"
	"outdial-platform/internal/candidate"
	"outdial-platform/internal/config"
	"outdial-platform/internal/credits"
	"outdial-platform/internal/dialer"
	"outdial-platform/internal/httpapi"
	"outdial-platform/internal/settings"
	"outdial-platform/internal/users"
	"outdial-platform/internal/vapi"
)

// registerRoutes builds the service graph and wires it onto the router.
// Keep this file free of business logic.
func registerRoutes(r *gin.Engine, cfg config.Config, log *slog.Logger, authManager *auth.Manager, db *sql.DB, rdb *redis.Client) {
	var (
		candidateStore candidate.Store
		creditStore    credits.Store
		userStore      users.Store
		settingsStore  settings.Store
		campaignStore  campaigns.Store
	)
	if db != nil {
		candidateStore = candidate.NewPostgresStore(db)
		creditStore = credits.NewPostgresStore(db)
		userStore = users.NewPostgresStore(db)
		settingsStore = settings.NewPostgresStore(db)
		campaignStore = campaigns.NewPostgresStore(db)
	} else {
		candidateStore = candidate.NewMemoryStore()
		creditStore = credits.NewMemoryStore()
		userStore = users.NewMemoryStore()
		settingsStore = settings.NewMemoryStore()
		campaignStore = campaigns.NewMemoryStore()
	}

	provider := vapi.NewClient(cfg.Vapi.BaseURL, cfg.Vapi.PrivateKey, cfg.Vapi.Timeout)
	ledger := credits.NewLedger(creditStore, cfg.Credits.DefaultAllotment, log)
	engine := callops.NewEngine(candidateStore, provider, log)

	var dialLock dialer.Lock
	if rdb != nil {
		dialLock = dialer.NewRedisLock(rdb, log)
	}
	dialSvc := dialer.NewService(
		candidateStore, ledger, provider, engine, dialLock,
		cfg.Vapi.AssistantID, cfg.Vapi.PhoneNumberID, log,
	)

	h := httpapi.Handlers{
		Users:         users.NewService(userStore, authManager),
		Dialer:        dialSvc,
		Engine:        engine,
		Candidates:    candidateStore,
		Credits:       ledger,
		Campaigns:     campaigns.NewService(campaignStore, log),
		Assistants:    assistants.NewService(provider, rdb, log),
		Settings:      settingsStore,
		WebhookSecret: cfg.Webhook.Secret,
		Log:           log,
	}
	httpapi.RegisterRoutes(r, h, auth.OptionalAccessToken(authManager))
}
