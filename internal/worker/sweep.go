package worker

// sweep.go
// Periodic low-stock sweep. The movement hook only fires on the movement that
// crosses the threshold; materials that were already low at deploy time, or
// whose threshold was raised by a metadata edit, are caught here. The
// dispatcher's per-day dedupe keeps the two paths from double-alerting.

import (
	"context"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/repository"

	"github.com/rs/zerolog/log"
)

// StartLowStockSweep scans active materials at or below their threshold every
// interval and enqueues an alert for each.
func StartLowStockSweep(ctx context.Context, materials repository.MaterialRepository, dispatcher *Dispatcher, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("low-stock sweep shutting down")
				return
			case <-ticker.C:
				runSweep(ctx, materials, dispatcher)
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("low-stock sweep started")
}

func runSweep(ctx context.Context, materials repository.MaterialRepository, dispatcher *Dispatcher) {
	low, err := materials.ListActiveLowStock(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sweep: listing low-stock materials failed")
		return
	}
	for i := range low {
		dispatcher.NotifyLowStock(ctx, &low[i])
	}
	if len(low) > 0 {
		log.Debug().Int("count", len(low)).Msg("sweep: low-stock materials checked")
	}
}
