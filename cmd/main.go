package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"engine"
	"engine/internal/api/handler/endpoints"
	"engine/internal/flow"
	"engine/internal/mail"
	"engine/internal/nodes/codenode"
	"engine/internal/nodes/httpnode"
	"engine/internal/nodes/mailnode"
	"engine/internal/secrets"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	engine.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)
	if engine.GetConfig().Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	}

	registry, err := flow.BuildRegistry(
		httpnode.Package(engine.GetConfig().DefaultHTTPTimeoutMs),
		codenode.Package(),
		mailnode.Package(newMailService()),
	)
	if err != nil {
		engine.Logger.Fatal().Err(err).Msg("Failed to build node registry")
	}
	engine.Logger.Info().Int("nodes", len(registry.Nodes())).Msg("Node registry composed")

	dispatcher := flow.NewDispatcher(registry, engine.Logger)
	runner := flow.NewRunner(dispatcher, engine.Logger)
	resolver := newSecretResolver()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(engine.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	endpoints.NodeHandler(router, dispatcher, resolver)
	endpoints.RunHandler(router, runner, resolver)

	engine.Logger.Debug().Msgf("Starting engine API on port %s", engine.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		engine.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

func newMailService() *mail.Service {
	cfg := engine.GetConfig()
	providers := []mail.Provider{
		mail.NewBrevoProvider(cfg.BrevoConfig.ApiKey),
		mail.NewSMTPProvider(mail.SMTPConfig{
			Host:     cfg.SmtpConfig.Host,
			Port:     cfg.SmtpConfig.Port,
			Username: cfg.SmtpConfig.Username,
			Password: cfg.SmtpConfig.Password,
			From:     cfg.SmtpConfig.From,
			UseTLS:   cfg.SmtpConfig.UseTLS,
		}),
	}
	return mail.NewService(engine.Logger, providers...)
}

func newSecretResolver() flow.SecretResolver {
	if engine.GetConfig().SecretStore == "redis" {
		engine.Logger.Info().Msg("Using redis secret store")
		return secrets.NewRedisStore(engine.Redis)
	}
	return secrets.NewEnvStore()
}
