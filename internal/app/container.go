package app

import (
	"context"

	"github.com/uptrace/bun"

	"zcrm/internal/app/config"
	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/crm"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/http/handlers"
	"zcrm/internal/infra/ai"
	"zcrm/internal/infra/database"
	"zcrm/internal/infra/whatsapp/connection"
	"zcrm/internal/infra/whatsapp/core"
	"zcrm/internal/pipeline"
	"zcrm/internal/pipeline/analyzer"
	"zcrm/internal/pipeline/intake"
	"zcrm/internal/pipeline/responder"
	"zcrm/internal/pipeline/scheduler"
	"zcrm/internal/pipeline/synthesizer"
	accountUseCases "zcrm/internal/usecases/account"
	chatUseCases "zcrm/internal/usecases/chat"
	crmUseCases "zcrm/internal/usecases/crm"
	"zcrm/pkg/logger"
)

// Container gerencia todas as dependências da aplicação
type Container struct {
	// Database
	DB *bun.DB

	// Repositories
	AccountRepo  account.Repository
	ChatRepo     chat.ChatRepository
	MessageRepo  chat.MessageRepository
	ContactRepo  crm.ContactRepository
	LeadRepo     crm.LeadRepository
	TicketRepo   crm.TicketRepository
	QRBackupRepo whatsapp.QRBackupRepository

	// WhatsApp
	WhatsAppManager *core.Manager

	// Pipeline
	Analyzer    *analyzer.Analyzer
	Synthesizer *synthesizer.Synthesizer
	Responder   *responder.Responder
	Pipeline    *pipeline.Pipeline
	Intake      *intake.Intake
	Scheduler   *scheduler.Scheduler

	// Use Cases
	CreateAccountUC  *accountUseCases.CreateAccountUseCase
	ListAccountsUC   *accountUseCases.ListAccountsUseCase
	GetAccountUC     *accountUseCases.GetAccountUseCase
	InitializeUC     *accountUseCases.InitializeAccountUseCase
	GetStatusUC      *accountUseCases.GetStatusUseCase
	GetQRCodeUC      *accountUseCases.GetQRCodeUseCase
	DisconnectUC     *accountUseCases.DisconnectAccountUseCase
	ReconnectUC      *accountUseCases.ReconnectAccountUseCase
	AutoReplyUC      *accountUseCases.ConfigureAutoReplyUseCase
	DeactivateUC     *accountUseCases.DeactivateAccountUseCase
	ListChatsUC      *chatUseCases.ListChatsUseCase
	GetMessagesUC    *chatUseCases.GetMessagesUseCase
	SendMessageUC    *chatUseCases.SendMessageUseCase
	AssignChatUC     *chatUseCases.AssignChatUseCase
	ListLeadsUC      *crmUseCases.ListLeadsUseCase
	ListTicketsUC    *crmUseCases.ListTicketsUseCase
	ListContactsUC   *crmUseCases.ListContactsUseCase
	CloseTicketUC    *crmUseCases.CloseTicketUseCase

	// Handlers
	AccountHandler *handlers.AccountHandler
	ChatHandler    *handlers.ChatHandler
	CRMHandler     *handlers.CRMHandler
	HealthHandler  *handlers.HealthHandler

	// Logger
	Logger logger.Logger
}

// NewContainer cria um novo container de dependências. A montagem segue a
// ordem de dependência: repositórios, transporte WhatsApp, pipeline, casos
// de uso e, por fim, os handlers HTTP.
func NewContainer(ctx context.Context, cfg *config.Config, db *bun.DB, log logger.Logger) (*Container, error) {
	c := &Container{
		DB:     db,
		Logger: log.WithComponent("di-container"),
	}

	c.initRepositories()

	if err := c.initWhatsApp(ctx, cfg, log); err != nil {
		return nil, err
	}

	c.initPipeline(cfg, log)
	c.initUseCases(log)
	c.initHandlers(log)

	c.Logger.Info().Msg("Container initialized successfully")
	return c, nil
}

// initRepositories inicializa os repositórios
func (c *Container) initRepositories() {
	c.AccountRepo = database.NewAccountRepository(c.DB)
	c.ChatRepo = database.NewChatRepository(c.DB)
	c.MessageRepo = database.NewMessageRepository(c.DB)
	c.ContactRepo = database.NewContactRepository(c.DB)
	c.LeadRepo = database.NewLeadRepository(c.DB)
	c.TicketRepo = database.NewTicketRepository(c.DB)
	c.QRBackupRepo = database.NewQRBackupRepository(c.DB)
}

// initWhatsApp inicializa o manager de sessões WhatsApp
func (c *Container) initWhatsApp(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	manager, err := core.NewManager(ctx, core.Options{
		DSN:       cfg.GetDatabaseDSN(),
		QRCodeTTL: cfg.AutoReply.QRCodeTTL,
		Backoff: connection.BackoffPolicy{
			MinDelay:    cfg.Reconnect.MinDelay,
			MaxDelay:    cfg.Reconnect.MaxDelay,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
			Window:      cfg.Reconnect.Window,
		},
		Accounts:  c.AccountRepo,
		Chats:     c.ChatRepo,
		Messages:  c.MessageRepo,
		QRBackups: c.QRBackupRepo,
	}, log)
	if err != nil {
		return err
	}

	c.WhatsAppManager = manager
	return nil
}

// initPipeline monta o pipeline autônomo de mensagens. O intake recebe os
// eventos do transporte e alimenta o coordenador, que encadeia análise,
// resposta automática e síntese de CRM.
func (c *Container) initPipeline(cfg *config.Config, log logger.Logger) {
	var provider analyzer.AIProvider
	if cfg.AI.Enabled && cfg.AI.BaseURL != "" {
		provider = ai.NewClient(ai.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		}, log)
	}

	c.Analyzer = analyzer.NewAnalyzer(provider, provider != nil, analyzer.DefaultMinMessages, log)

	c.Synthesizer = synthesizer.NewSynthesizer(
		c.ContactRepo,
		c.LeadRepo,
		c.TicketRepo,
		synthesizer.Options{
			ColdAfterDays: cfg.Pipeline.LeadColdAfterDays,
			HotDecayDays:  cfg.Pipeline.LeadHotDecayDays,
		},
		log,
	)

	c.Responder = responder.NewResponder(
		c.AccountRepo,
		c.ChatRepo,
		c.MessageRepo,
		c.Analyzer,
		c.WhatsAppManager,
		cfg.Pipeline.HistoryWindow,
		cfg.AutoReply.DefaultDelay,
		log,
	)

	c.Pipeline = pipeline.NewPipeline(
		c.MessageRepo,
		c.Analyzer,
		c.Synthesizer,
		c.Responder,
		cfg.Pipeline.HistoryWindow,
		log,
	)

	c.Intake = intake.NewIntake(c.MessageRepo, c.ChatRepo, cfg.Pipeline.MarkerTTL, log)
	c.Intake.SetDownstream(c.Pipeline)
	c.WhatsAppManager.SetEventSink(c.Intake)

	c.Scheduler = scheduler.NewScheduler(
		c.AccountRepo,
		c.WhatsAppManager,
		c.Synthesizer,
		cfg.Pipeline.TickInterval,
		log,
	)
}

// initUseCases inicializa os casos de uso
func (c *Container) initUseCases(log logger.Logger) {
	c.CreateAccountUC = accountUseCases.NewCreateAccountUseCase(c.AccountRepo, log)
	c.ListAccountsUC = accountUseCases.NewListAccountsUseCase(c.AccountRepo, log)
	c.GetAccountUC = accountUseCases.NewGetAccountUseCase(c.AccountRepo, log)
	c.InitializeUC = accountUseCases.NewInitializeAccountUseCase(c.AccountRepo, c.WhatsAppManager, log)
	c.GetStatusUC = accountUseCases.NewGetStatusUseCase(c.AccountRepo, c.WhatsAppManager, log)
	c.GetQRCodeUC = accountUseCases.NewGetQRCodeUseCase(c.AccountRepo, c.WhatsAppManager, log)
	c.DisconnectUC = accountUseCases.NewDisconnectAccountUseCase(c.AccountRepo, c.WhatsAppManager, c.Responder, log)
	c.ReconnectUC = accountUseCases.NewReconnectAccountUseCase(c.AccountRepo, c.WhatsAppManager, log)
	c.AutoReplyUC = accountUseCases.NewConfigureAutoReplyUseCase(c.AccountRepo, c.Responder, log)
	c.DeactivateUC = accountUseCases.NewDeactivateAccountUseCase(c.AccountRepo, c.WhatsAppManager, c.Responder, log)

	c.ListChatsUC = chatUseCases.NewListChatsUseCase(c.ChatRepo, log)
	c.GetMessagesUC = chatUseCases.NewGetMessagesUseCase(c.ChatRepo, c.MessageRepo, log)
	c.SendMessageUC = chatUseCases.NewSendMessageUseCase(c.WhatsAppManager, log)
	c.AssignChatUC = chatUseCases.NewAssignChatUseCase(c.ChatRepo, c.Responder, log)

	c.ListLeadsUC = crmUseCases.NewListLeadsUseCase(c.LeadRepo, log)
	c.ListTicketsUC = crmUseCases.NewListTicketsUseCase(c.TicketRepo, log)
	c.ListContactsUC = crmUseCases.NewListContactsUseCase(c.ContactRepo, log)
	c.CloseTicketUC = crmUseCases.NewCloseTicketUseCase(c.TicketRepo, log)
}

// initHandlers inicializa os handlers HTTP
func (c *Container) initHandlers(log logger.Logger) {
	c.AccountHandler = handlers.NewAccountHandler(
		c.CreateAccountUC,
		c.ListAccountsUC,
		c.GetAccountUC,
		c.InitializeUC,
		c.GetStatusUC,
		c.GetQRCodeUC,
		c.DisconnectUC,
		c.ReconnectUC,
		c.AutoReplyUC,
		c.DeactivateUC,
		log,
	)

	c.ChatHandler = handlers.NewChatHandler(
		c.ListChatsUC,
		c.GetMessagesUC,
		c.SendMessageUC,
		c.AssignChatUC,
		log,
	)

	c.CRMHandler = handlers.NewCRMHandler(
		c.ListLeadsUC,
		c.ListTicketsUC,
		c.ListContactsUC,
		c.CloseTicketUC,
		log,
	)

	c.HealthHandler = handlers.NewHealthHandler()
}

// WarmIntakeMarkers repovoa os marcadores de deduplicação do intake a
// partir do banco, chat a chat, para as contas ativas. Chamado no boot,
// antes das sessões restauradas começarem a entregar eventos.
func (c *Container) WarmIntakeMarkers(ctx context.Context) error {
	accounts, err := c.AccountRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, acc := range accounts {
		chats, err := c.ChatRepo.ListByAccount(ctx, acc.ID)
		if err != nil {
			c.Logger.WithError(err).WithField("accountId", acc.ID).
				Warn().Msg("Failed to list chats for marker warmup")
			continue
		}

		jids := make([]string, 0, len(chats))
		for _, ch := range chats {
			jids = append(jids, ch.ChatJID)
		}
		c.Intake.WarmMarkers(ctx, acc.ID, jids)
	}
	return nil
}

// Close encerra os componentes de longa duração na ordem inversa da montagem
func (c *Container) Close() {
	c.Scheduler.Close()
	c.Responder.Close()
	if err := c.WhatsAppManager.Close(); err != nil {
		c.Logger.WithError(err).Warn().Msg("Failed to close WhatsApp manager")
	}
}
