package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlerts = "jobs:alerts"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AlertJobPayload describes a material that crossed its low-stock threshold.
type AlertJobPayload struct {
	MaterialID  string `json:"material_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
	Location    string `json:"location"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// NotifyLowStock satisfies the ledger engine's notifier hook. Best-effort:
// enqueue problems are logged, never propagated to the movement that
// triggered them. One alert per material per day — repeated out movements on
// an already-flagged material stay quiet until tomorrow.
func (d *Dispatcher) NotifyLowStock(ctx context.Context, m *model.Material) {
	dedupeKey := fmt.Sprintf("alerted:%s:%s", time.Now().Format("2006-01-02"), m.ID)
	ok, err := d.rdb.SetNX(ctx, dedupeKey, 1, 24*time.Hour).Result()
	if err != nil {
		log.Error().Err(err).Str("material_id", m.ID.String()).Msg("dispatcher: dedupe check failed")
		return
	}
	if !ok {
		return // already alerted today
	}

	payload := AlertJobPayload{
		MaterialID:  m.ID.String(),
		Name:        m.Name,
		Quantity:    m.Quantity,
		MinQuantity: m.MinQuantity,
		Location:    m.Location,
	}
	if err := d.enqueue(ctx, QueueAlerts, "low_stock_alert", payload); err != nil {
		log.Error().Err(err).Str("material_id", m.ID.String()).Msg("dispatcher: enqueue alert failed")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers holds the processors the pool routes jobs to.
type Handlers struct {
	Alert *AlertWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the alert queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueAlerts).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "low_stock_alert":
		if err := handlers.Alert.Process(ctx, job.Payload); err != nil {
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), 1)
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
	}
}
