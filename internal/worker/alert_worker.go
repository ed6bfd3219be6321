package worker

// alert_worker.go
// Processes low-stock alert jobs from QueueAlerts and mails the configured
// recipient. Delivery failures land in the dead letter queue.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Wasion-it/fork-controle-material/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertWorker turns queued low-stock payloads into notification email.
type AlertWorker struct {
	mailer    *infra.Mailer
	recipient string
}

func NewAlertWorker(mailer *infra.Mailer, recipient string) *AlertWorker {
	return &AlertWorker{mailer: mailer, recipient: recipient}
}

// Process sends one alert email. Returning an error moves the job to the DLQ.
func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload AlertJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("alert_worker: invalid payload: %w", err)
	}
	if w.recipient == "" {
		log.Warn().Str("material", payload.Name).Msg("alert_worker: no recipient configured, dropping alert")
		return nil
	}

	subject := fmt.Sprintf("[stock] low stock: %s (%d left)", payload.Name, payload.Quantity)
	body := fmt.Sprintf(
		"Material %q is at %d units (threshold %d).\nLocation: %s\nMaterial id: %s\n",
		payload.Name, payload.Quantity, payload.MinQuantity, payload.Location, payload.MaterialID,
	)

	if err := w.mailer.Send(w.recipient, subject, body); err != nil {
		return fmt.Errorf("alert_worker: send: %w", err)
	}
	log.Info().Str("material", payload.Name).Int("quantity", payload.Quantity).Msg("alert_worker: low-stock alert sent")
	return nil
}
