package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/taskflow/config"
	"github.com/example/taskflow/modules/audit"
	cachemod "github.com/example/taskflow/modules/cache"
	"github.com/example/taskflow/modules/identity"
	"github.com/example/taskflow/modules/retention"
	taskmod "github.com/example/taskflow/modules/task"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.JWTSecret == config.DevJWTSecret {
		log.Println("Warning: TASKFLOW_JWT_SECRET is not set, using the development secret")
	}

	log.Println("=== Taskflow ===")
	log.Printf("Database: %s", cfg.DBPath)
	log.Printf("Retention: %d days, sweep every %s", cfg.RetentionDays, cfg.SweepInterval)
	log.Printf("Batch cap: %d", cfg.MaxBatchSize)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}
	logger := app.Logger()

	// Create modules
	identityModule := identity.NewModule(identity.TokenConfig{
		SecretKey:           cfg.JWTSecret,
		Issuer:              cfg.JWTIssuer,
		AccessTokenDuration: cfg.AccessTokenExpiry,
	})
	auditModule := audit.NewModule(cfg.AuditCapacity)
	taskModule := taskmod.NewModule(taskmod.ModuleConfig{
		DBPath:  cfg.DBPath,
		DBDebug: cfg.DBDebug,
		Settings: taskmod.Settings{
			RetentionDays:    cfg.RetentionDays,
			MaxBatchSize:     cfg.MaxBatchSize,
			BatchConcurrency: cfg.BatchConcurrency,
			DefaultPageSize:  cfg.DefaultPageSize,
			MaxPageSize:      cfg.MaxPageSize,
		},
	}, logger)
	retentionModule := retention.NewModule(retention.Config{Interval: cfg.SweepInterval}, logger)

	// The cache is optional. It is handed to the task module before Start
	// because the service is built there.
	var cacheModule *cachemod.Module
	if cfg.CacheEnabled() {
		cacheModule = cachemod.NewModule(cachemod.Config{
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			Prefix:        cachemod.DefaultConfig().Prefix,
			TTL:           cfg.CacheTTL,
		})
		taskModule.SetCache(cacheModule.Cache())
		log.Printf("Redis cache: %s (TTL %s)", cfg.RedisAddr, cfg.CacheTTL)
	}

	// Register modules
	app.Register(identityModule)
	if cacheModule != nil {
		app.Register(cacheModule)
	}
	app.Register(taskModule)
	app.Register(auditModule)
	app.Register(retentionModule)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Println("Services: create-task, get-task, list-tasks, update-task, soft-delete-task,")
	log.Println("          restore-task, hard-delete-task, batch-tasks, sweep-retention,")
	log.Println("          get-stats, reconcile-stats, resolve-principal")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}
