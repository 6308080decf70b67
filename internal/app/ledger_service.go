package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/lifxswitch/internal/config"
	"github.com/dokzlo13/lifxswitch/internal/ledger"
)

// LedgerService prunes gesture history past its retention on an interval.
type LedgerService struct {
	cfg    *config.Config
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(cfg *config.Config, l *ledger.Ledger) *LedgerService {
	return &LedgerService{cfg: cfg, ledger: l}
}

// Start runs the cleanup loop until ctx is cancelled.
func (s *LedgerService) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *LedgerService) run(ctx context.Context) {
	retention := time.Duration(s.cfg.Ledger.RetentionDays) * 24 * time.Hour
	interval := s.cfg.Ledger.CleanupInterval.Duration()

	s.cleanup(retention)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(retention)
		}
	}
}

func (s *LedgerService) cleanup(retention time.Duration) {
	deleted, err := s.ledger.Prune(retention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune gesture history")
	} else if deleted > 0 {
		log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Pruned gesture history")
	}
}
