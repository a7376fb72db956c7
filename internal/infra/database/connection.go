package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/crm"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// NewDatabase cria uma nova conexão com o banco de dados PostgreSQL
func NewDatabase(dsn string, debug bool, log logger.Logger) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	db := bun.NewDB(sqldb, pgdialect.New())

	if debug {
		db.AddQueryHook(logger.NewBunQueryHook(log))
	}

	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations cria as tabelas e índices do CRM
func RunMigrations(db *bun.DB) error {
	ctx := context.Background()

	models := []interface{}{
		(*account.Account)(nil),
		(*chat.Chat)(nil),
		(*chat.Message)(nil),
		(*crm.Contact)(nil),
		(*crm.Lead)(nil),
		(*crm.Ticket)(nil),
		(*whatsapp.QRBackup)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	// Constraints únicas que sustentam a idempotência do pipeline. A chave de
	// deduplicação de mensagens é a guarda autoritativa contra corridas de
	// pollers concorrentes; o marcador em memória é só otimização.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_zcrm_chats_account_jid
			ON zcrm_chats ("accountId", "chatJid")`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_zcrm_messages_dedup
			ON zcrm_messages ("accountId", "chatJid", "messageId")`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_zcrm_leads_contact_account
			ON zcrm_leads ("contactId", "accountId")`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_zcrm_tickets_open
			ON zcrm_tickets ("contactId", "accountId") WHERE status = 'open'`,
		`CREATE INDEX IF NOT EXISTS ix_zcrm_messages_chat
			ON zcrm_messages ("accountId", "chatJid", "timestamp")`,
		`CREATE INDEX IF NOT EXISTS ix_zcrm_qr_backups_account
			ON zcrm_qr_backups ("accountId", "createdAt")`,
	}

	for _, ddl := range indexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// isUniqueViolation verifica se o erro é violação de chave única do Postgres
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
