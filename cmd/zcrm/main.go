package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // driver usado pelo sqlstore do whatsmeow

	"zcrm/internal/app"
	"zcrm/internal/app/config"
	"zcrm/internal/app/server"
	"zcrm/internal/http/router"
	"zcrm/internal/infra/database"
	"zcrm/pkg/logger"
)

func main() {
	// Carregar configuração
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Configurar logger usando as configurações do .env
	log := logger.Setup(cfg).WithComponent("main")

	log.WithFields(map[string]interface{}{
		"env":  cfg.App.Env,
		"port": cfg.App.Port,
	}).Info().Msg("Starting zCRM")

	// Conectar ao banco de dados
	db, err := database.NewDatabase(cfg.GetDatabaseDSN(), cfg.App.Env == "development", log)
	if err != nil {
		log.WithError(err).Fatal().Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Connected to database successfully")

	// Executar migrações
	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal().Msg("Failed to run migrations")
	}

	// Contexto raiz dos componentes de longa duração
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Montar o container de dependências (transporte, pipeline, use cases)
	container, err := app.NewContainer(ctx, cfg, db, log)
	if err != nil {
		log.WithError(err).Fatal().Msg("Failed to initialize container")
	}
	defer container.Close()

	// Repovoar os marcadores de dedup antes do transporte entregar eventos
	if err := container.WarmIntakeMarkers(ctx); err != nil {
		log.WithError(err).Warn().Msg("Failed to warm dedup markers")
	}

	// Restaurar sessões autenticadas e reconectá-las em background
	if err := container.WhatsAppManager.RestoreSessions(ctx); err != nil {
		log.WithError(err).Error().Msg("Failed to restore sessions")
	}
	container.WhatsAppManager.ConnectRestoredSessions(ctx)

	// Iniciar o scheduler do pipeline (health checks por conta + varreduras)
	if err := container.Scheduler.StartAll(ctx); err != nil {
		log.WithError(err).Error().Msg("Failed to start pipeline scheduler")
	}

	// Configurar router com handlers
	handler := router.New(
		cfg,
		log,
		container.AccountHandler,
		container.ChatHandler,
		container.CRMHandler,
		container.HealthHandler,
	)

	// Criar servidor
	srv := server.New(cfg, handler, log)

	// Canal para capturar sinais do sistema
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Fatal().Msg("Failed to start server")
		}
	}()

	log.Info().Msg("zCRM started successfully")

	// Aguardar sinal de parada
	<-stop

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error().Msg("Failed to stop server gracefully")
	}

	cancel()
	log.Info().Msg("zCRM stopped")
}
