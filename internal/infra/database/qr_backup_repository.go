package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"zcrm/internal/domain/whatsapp"
)

// Quantidade de backups de QR mantidos por conta
const qrBackupKeep = 3

// qrBackupRepository implementa a interface whatsapp.QRBackupRepository
type qrBackupRepository struct {
	db *bun.DB
}

// NewQRBackupRepository cria uma nova instância do repositório de backups de QR
func NewQRBackupRepository(db *bun.DB) whatsapp.QRBackupRepository {
	return &qrBackupRepository{db: db}
}

// Save grava um backup novo e poda os antigos além do limite
func (r *qrBackupRepository) Save(ctx context.Context, accountID uuid.UUID, code string) error {
	backup := &whatsapp.QRBackup{
		ID:        uuid.New(),
		AccountID: accountID,
		Code:      code,
		CreatedAt: time.Now(),
	}

	if _, err := r.db.NewInsert().Model(backup).Exec(ctx); err != nil {
		return err
	}

	return r.Prune(ctx, accountID, qrBackupKeep)
}

// Latest retorna o backup mais recente da conta
func (r *qrBackupRepository) Latest(ctx context.Context, accountID uuid.UUID) (*whatsapp.QRBackup, error) {
	backup := new(whatsapp.QRBackup)
	err := r.db.NewSelect().
		Model(backup).
		Where("\"accountId\" = ?", accountID).
		Order("createdAt DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, whatsapp.ErrQRCodeNotAvailable
		}
		return nil, err
	}
	return backup, nil
}

// Prune mantém apenas os N backups mais recentes da conta
func (r *qrBackupRepository) Prune(ctx context.Context, accountID uuid.UUID, keep int) error {
	subq := r.db.NewSelect().
		Model((*whatsapp.QRBackup)(nil)).
		Column("id").
		Where("\"accountId\" = ?", accountID).
		Order("createdAt DESC").
		Limit(keep)

	_, err := r.db.NewDelete().
		Model((*whatsapp.QRBackup)(nil)).
		Where("\"accountId\" = ?", accountID).
		Where("id NOT IN (?)", subq).
		Exec(ctx)

	return err
}
