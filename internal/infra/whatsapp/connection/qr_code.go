package connection

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/vincent-petithory/dataurl"
	"go.mau.fi/whatsmeow"

	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// QRCodeData representa os dados de um QR code ativo.
type QRCodeData struct {
	Code      string    `json:"code"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// QRCodeManager gerencia os QR codes de pareamento das contas. Os códigos
// vivem em memória com TTL curto; cada código também é copiado para o
// repositório de backup para permitir consulta após reinício do processo.
type QRCodeManager struct {
	qrCodes map[uuid.UUID]*QRCodeData
	backups whatsapp.QRBackupRepository
	ttl     time.Duration
	mutex   sync.RWMutex
	logger  logger.Logger
}

// NewQRCodeManager cria uma nova instância do QRCodeManager.
func NewQRCodeManager(backups whatsapp.QRBackupRepository, ttl time.Duration, log logger.Logger) *QRCodeManager {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QRCodeManager{
		qrCodes: make(map[uuid.UUID]*QRCodeData),
		backups: backups,
		ttl:     ttl,
		logger:  log.WithComponent("qr-manager"),
	}
}

// GenerateQRCode abre o canal de QR codes do whatsmeow e inicia o
// processamento dos eventos em background.
func (qm *QRCodeManager) GenerateQRCode(ctx context.Context, accountID uuid.UUID, client *whatsmeow.Client) (<-chan whatsmeow.QRChannelItem, error) {
	qm.logger.WithField("accountId", accountID).Info().Msg("Starting QR code generation")

	qrChan, err := client.GetQRChannel(ctx)
	if err != nil {
		qm.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to get QR channel")
		return nil, err
	}

	go qm.processQREvents(ctx, accountID, qrChan)

	return qrChan, nil
}

// processQREvents consome o canal de QR codes até ele fechar.
func (qm *QRCodeManager) processQREvents(ctx context.Context, accountID uuid.UUID, qrChan <-chan whatsmeow.QRChannelItem) {
	qm.logger.WithField("accountId", accountID).Debug().Msg("Starting QR event processing")

	for evt := range qrChan {
		switch evt.Event {
		case "code":
			qm.handleQRCode(ctx, accountID, evt.Code)
		case "success":
			qm.handleQRSuccess(accountID)
		case "timeout":
			qm.handleQRTimeout(accountID)
		case "error":
			qm.handleQRError(accountID, evt.Error)
		default:
			qm.logger.WithFields(map[string]interface{}{
				"accountId": accountID,
				"event":     evt.Event,
			}).Debug().Msg("Unknown QR event")
		}
	}

	qm.logger.WithField("accountId", accountID).Debug().Msg("QR event processing finished")
}

// handleQRCode registra um novo QR code, gera a imagem PNG em data URL e
// persiste o backup durável.
func (qm *QRCodeManager) handleQRCode(ctx context.Context, accountID uuid.UUID, code string) {
	now := time.Now()
	qrData := &QRCodeData{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(qm.ttl),
	}

	if png, err := qrcode.Encode(code, qrcode.Medium, 256); err == nil {
		qrData.ImageURL = dataurl.EncodeBytes(png)
	} else {
		qm.logger.WithError(err).WithField("accountId", accountID).Warn().Msg("Failed to encode QR code image")
	}

	qm.mutex.Lock()
	qm.qrCodes[accountID] = qrData
	qm.mutex.Unlock()

	qm.logger.WithField("accountId", accountID).Info().Msg("QR code generated")

	if qm.backups != nil {
		if err := qm.backups.Save(ctx, accountID, code); err != nil {
			qm.logger.WithError(err).WithField("accountId", accountID).Warn().Msg("Failed to persist QR backup")
		}
	}

	qm.displayQRCodeInTerminal(code)
}

// handleQRSuccess remove o QR code após pareamento bem sucedido.
func (qm *QRCodeManager) handleQRSuccess(accountID uuid.UUID) {
	qm.mutex.Lock()
	delete(qm.qrCodes, accountID)
	qm.mutex.Unlock()

	qm.logger.WithField("accountId", accountID).Info().Msg("QR code authentication successful")
}

// handleQRTimeout remove o QR code expirado.
func (qm *QRCodeManager) handleQRTimeout(accountID uuid.UUID) {
	qm.mutex.Lock()
	delete(qm.qrCodes, accountID)
	qm.mutex.Unlock()

	qm.logger.WithField("accountId", accountID).Warn().Msg("QR code expired")
}

// handleQRError remove o QR code após erro no pareamento.
func (qm *QRCodeManager) handleQRError(accountID uuid.UUID, err error) {
	qm.mutex.Lock()
	delete(qm.qrCodes, accountID)
	qm.mutex.Unlock()

	qm.logger.WithError(err).WithField("accountId", accountID).Error().Msg("QR code error")
}

// GetQRCode retorna o QR code atual de uma conta. Retorna vazio quando não
// existe código válido.
func (qm *QRCodeManager) GetQRCode(accountID uuid.UUID) (string, error) {
	data, err := qm.GetQRCodeData(accountID)
	if err != nil || data == nil {
		return "", err
	}
	return data.Code, nil
}

// GetQRCodeData retorna os dados completos do QR code atual.
func (qm *QRCodeManager) GetQRCodeData(accountID uuid.UUID) (*QRCodeData, error) {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	qrData, exists := qm.qrCodes[accountID]
	if !exists {
		return nil, nil
	}

	if time.Now().After(qrData.ExpiresAt) {
		delete(qm.qrCodes, accountID)
		return nil, nil
	}

	dataCopy := *qrData
	return &dataCopy, nil
}

// LatestBackup consulta o backup durável mais recente da conta. Usado
// quando o processo reiniciou no meio de um pareamento e o QR em memória
// se perdeu. Backups além do TTL são considerados vencidos.
func (qm *QRCodeManager) LatestBackup(ctx context.Context, accountID uuid.UUID) (string, error) {
	if qm.backups == nil {
		return "", nil
	}

	backup, err := qm.backups.Latest(ctx, accountID)
	if err != nil || backup == nil {
		return "", err
	}
	if time.Since(backup.CreatedAt) > qm.ttl {
		return "", nil
	}
	return backup.Code, nil
}

// ClearQRCode remove o QR code de uma conta.
func (qm *QRCodeManager) ClearQRCode(accountID uuid.UUID) {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	delete(qm.qrCodes, accountID)
	qm.logger.WithField("accountId", accountID).Debug().Msg("QR code cleared")
}

// IsQRCodeValid verifica se há um QR code válido para a conta.
func (qm *QRCodeManager) IsQRCodeValid(accountID uuid.UUID) bool {
	qm.mutex.RLock()
	defer qm.mutex.RUnlock()

	qrData, exists := qm.qrCodes[accountID]
	if !exists {
		return false
	}
	return time.Now().Before(qrData.ExpiresAt)
}

// CleanupExpiredQRCodes remove da memória os QR codes vencidos.
func (qm *QRCodeManager) CleanupExpiredQRCodes() {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	now := time.Now()
	expiredCount := 0

	for accountID, qrData := range qm.qrCodes {
		if now.After(qrData.ExpiresAt) {
			delete(qm.qrCodes, accountID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		qm.logger.WithField("count", expiredCount).Debug().Msg("Cleaned up expired QR codes")
	}
}

// StartCleanupRoutine roda a limpeza periódica até o contexto encerrar.
func (qm *QRCodeManager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	qm.logger.Info().Msg("QR code cleanup routine started")

	for {
		select {
		case <-ctx.Done():
			qm.logger.Info().Msg("QR code cleanup routine stopped")
			return
		case <-ticker.C:
			qm.CleanupExpiredQRCodes()
		}
	}
}

// displayQRCodeInTerminal exibe o QR code no terminal para pareamento local.
func (qm *QRCodeManager) displayQRCodeInTerminal(code string) {
	qm.logger.Info().Msg("Scan the QR code below with WhatsApp (Settings > Linked devices)")
	qrterminal.GenerateHalfBlock(code, qrterminal.L, os.Stdout)
}

// Close encerra o QRCodeManager.
func (qm *QRCodeManager) Close() {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	count := len(qm.qrCodes)
	qm.qrCodes = make(map[uuid.UUID]*QRCodeData)

	qm.logger.WithField("clearedCount", count).Info().Msg("QR code manager closed")
}
