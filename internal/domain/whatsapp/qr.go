package whatsapp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// QRBackup é a cópia durável do QR code mais recente de uma conta. Garante
// que uma falha transitória do leitor em memória não perca o código vigente.
type QRBackup struct {
	bun.BaseModel `bun:"table:zcrm_qr_backups,alias:qr"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	AccountID uuid.UUID `bun:"accountId,type:uuid,notnull" json:"accountId"`
	Code      string    `bun:"code,type:text,notnull" json:"code"`
	CreatedAt time.Time `bun:"createdAt,type:timestamptz,notnull" json:"createdAt"`
}

// QRBackupRepository persiste backups de QR code, podados aos mais recentes
type QRBackupRepository interface {
	// Save grava um backup novo e poda os antigos além do limite
	Save(ctx context.Context, accountID uuid.UUID, code string) error

	// Latest retorna o backup mais recente da conta
	Latest(ctx context.Context, accountID uuid.UUID) (*QRBackup, error)

	// Prune mantém apenas os N backups mais recentes da conta
	Prune(ctx context.Context, accountID uuid.UUID, keep int) error
}
