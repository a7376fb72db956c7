package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zcrm/internal/app/config"
	"zcrm/internal/http/handlers"
	appMiddleware "zcrm/internal/http/middleware"
	"zcrm/pkg/logger"
)

// Router representa o roteador principal da aplicação
type Router struct {
	*chi.Mux
	config         *config.Config
	logger         logger.Logger
	accountHandler *handlers.AccountHandler
	chatHandler    *handlers.ChatHandler
	crmHandler     *handlers.CRMHandler
	healthHandler  *handlers.HealthHandler
}

// New cria uma nova instância do router
func New(
	cfg *config.Config,
	log logger.Logger,
	accountHandler *handlers.AccountHandler,
	chatHandler *handlers.ChatHandler,
	crmHandler *handlers.CRMHandler,
	healthHandler *handlers.HealthHandler,
) *Router {
	r := &Router{
		Mux:            chi.NewRouter(),
		config:         cfg,
		logger:         log.WithComponent("router"),
		accountHandler: accountHandler,
		chatHandler:    chatHandler,
		crmHandler:     crmHandler,
		healthHandler:  healthHandler,
	}

	r.setupMiddlewares()
	r.setupRoutes()

	return r
}

// setupMiddlewares configura os middlewares globais
func (r *Router) setupMiddlewares() {
	// Middleware básicos do Chi
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Timeout global
	r.Use(middleware.Timeout(60 * time.Second))

	// Middlewares customizados
	r.Use(appMiddleware.NewCORS(r.config.CORS.AllowedOrigins))
	r.Use(appMiddleware.NewLoggingMiddleware(r.logger))
	r.Use(appMiddleware.NewRecoveryMiddleware(r.logger))
	r.Use(appMiddleware.NewRateLimit(r.config.RateLimit.Requests))
}

// setupRoutes configura as rotas da aplicação
func (r *Router) setupRoutes() {
	// Health check
	r.Get("/health", r.healthHandler.Health)

	// Rotas de contas
	r.Route("/accounts", func(rt chi.Router) {
		rt.Post("/", r.accountHandler.CreateAccount)
		rt.Get("/", r.accountHandler.ListAccounts)

		rt.Route("/{accountID}", func(rt chi.Router) {
			rt.Get("/", r.accountHandler.GetAccount)
			rt.Delete("/", r.accountHandler.DeactivateAccount)
			rt.Post("/initialize", r.accountHandler.InitializeAccount)
			rt.Get("/status", r.accountHandler.GetStatus)
			rt.Get("/qr", r.accountHandler.GetQRCode)
			rt.Post("/disconnect", r.accountHandler.DisconnectAccount)
			rt.Post("/reconnect", r.accountHandler.ReconnectAccount)
			rt.Put("/autoreply", r.accountHandler.ConfigureAutoReply)

			// Chats e mensagens da conta
			rt.Route("/chats", func(rt chi.Router) {
				rt.Get("/", r.chatHandler.ListChats)
				rt.Route("/{chatJID}", func(rt chi.Router) {
					rt.Get("/messages", r.chatHandler.GetMessages)
					rt.Post("/assign", r.chatHandler.AssignChat)
				})
			})
			rt.Post("/messages/send", r.chatHandler.SendMessage)

			// CRM da conta
			rt.Get("/leads", r.crmHandler.ListLeads)
			rt.Get("/tickets", r.crmHandler.ListTickets)
			rt.Post("/tickets/{contactID}/close", r.crmHandler.CloseTicket)
		})
	})

	// Contatos são globais (identificados pelo telefone, compartilhados
	// entre contas)
	r.Get("/contacts", r.crmHandler.ListContacts)

	// Rota catch-all para 404
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(404)
		w.Write([]byte(`{
			"success": false,
			"message": "Endpoint não encontrado",
			"error": {
				"code": "NOT_FOUND",
				"details": "O endpoint solicitado não existe"
			}
		}`))
	})
}
