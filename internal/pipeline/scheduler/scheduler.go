package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/pipeline/synthesizer"
	"zcrm/pkg/logger"
)

// SweepInterval é a cadência da varredura de inatividade de leads.
const SweepInterval = time.Hour

// Scheduler mantém um runner por conta com cadência única. Cada tick faz o
// health check da sessão; um ciclo que ainda não terminou faz o próximo ser
// pulado (backpressure explícito) em vez de empilhar trabalho. A varredura
// de inatividade roda em um loop global separado, pois opera sobre todas as
// contas de uma vez.
type Scheduler struct {
	accounts account.Repository
	manager  whatsapp.Manager
	synth    *synthesizer.Synthesizer

	tickInterval time.Duration

	runners map[uuid.UUID]*runner
	mutex   sync.Mutex

	logger logger.Logger
}

// runner é o laço periódico de uma conta.
type runner struct {
	cancel  context.CancelFunc
	running atomic.Bool
}

// NewScheduler cria o scheduler do pipeline.
func NewScheduler(
	accounts account.Repository,
	manager whatsapp.Manager,
	synth *synthesizer.Synthesizer,
	tickInterval time.Duration,
	log logger.Logger,
) *Scheduler {
	if tickInterval <= 0 {
		tickInterval = 10 * time.Second
	}
	return &Scheduler{
		accounts:     accounts,
		manager:      manager,
		synth:        synth,
		tickInterval: tickInterval,
		runners:      make(map[uuid.UUID]*runner),
		logger:       log.WithComponent("scheduler"),
	}
}

// StartAll inicia runners para todas as contas ativas e o loop global de
// varredura.
func (s *Scheduler) StartAll(ctx context.Context) error {
	active, err := s.accounts.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, acc := range active {
		s.StartAccount(ctx, acc.ID)
	}

	go s.runSweeps(ctx)

	s.logger.WithField("accounts", len(active)).Info().Msg("Scheduler started")
	return nil
}

// StartAccount inicia o runner de uma conta. Idempotente.
func (s *Scheduler) StartAccount(ctx context.Context, accountID uuid.UUID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.runners[accountID]; exists {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &runner{cancel: cancel}
	s.runners[accountID] = r

	go s.run(runCtx, accountID, r)

	s.logger.WithField("accountId", accountID).Info().Msg("Account runner started")
}

// StopAccount encerra o runner de uma conta.
func (s *Scheduler) StopAccount(accountID uuid.UUID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if r, exists := s.runners[accountID]; exists {
		r.cancel()
		delete(s.runners, accountID)
		s.logger.WithField("accountId", accountID).Info().Msg("Account runner stopped")
	}
}

// run é o laço de ticks de uma conta.
func (s *Scheduler) run(ctx context.Context, accountID uuid.UUID, r *runner) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.running.CompareAndSwap(false, true) {
				// Ciclo anterior ainda em andamento; pular este tick.
				s.logger.WithField("accountId", accountID).Debug().Msg("Cycle still running, skipping tick")
				continue
			}
			s.tick(ctx, accountID)
			r.running.Store(false)
		}
	}
}

// tick executa um ciclo: health check da sessão e retomada de conexões
// caídas. Contas em needs_reconnect ficam paradas até intervenção manual.
func (s *Scheduler) tick(ctx context.Context, accountID uuid.UUID) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.logger.WithError(err).WithField("accountId", accountID).Warn().Msg("Health check failed to load account")
		return
	}
	if !acc.IsActive {
		return
	}

	status, err := s.manager.GetStatus(accountID)
	if err != nil {
		// Sem sessão em memória: contas já autenticadas voltam sozinhas.
		if acc.WaJID != "" {
			if _, err := s.manager.Initialize(ctx, accountID); err != nil {
				s.logger.WithError(err).WithField("accountId", accountID).Warn().Msg("Health check failed to initialize session")
			}
		}
		return
	}

	if status.State == account.StateNeedsReconnect {
		s.logger.WithField("accountId", accountID).Debug().Msg("Account awaiting manual reconnect")
		return
	}

	if status.State == account.StateDisconnected && acc.WaJID != "" {
		if _, err := s.manager.Initialize(ctx, accountID); err != nil {
			s.logger.WithError(err).WithField("accountId", accountID).Warn().Msg("Health check reconnect failed")
		}
	}
}

// runSweeps roda a varredura de inatividade na cadência global.
func (s *Scheduler) runSweeps(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.synth.Sweep(ctx); err != nil {
				s.logger.WithError(err).Error().Msg("Inactivity sweep failed")
			}
		}
	}
}

// Close encerra todos os runners.
func (s *Scheduler) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for accountID, r := range s.runners {
		r.cancel()
		delete(s.runners, accountID)
	}

	s.logger.Info().Msg("Scheduler closed")
}
