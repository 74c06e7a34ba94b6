package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/funnel-leads/internal/log"
)

// LeadCapturedHandler processa uma mensagem de lead capturado (ex: e-mail pro dono).
type LeadCapturedHandler interface {
	HandleLeadCaptured(ctx context.Context, payload LeadCapturedPayload) error
}

type consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel consumer
	Handler LeadCapturedHandler
}

func NewWorker(ch *amqp.Channel, handler LeadCapturedHandler) *Worker {
	return &Worker{
		Channel: ch,
		Handler: handler,
	}
}

// Start consome a fila até ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (ack manual)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	log.Infof(" [*] Worker rodando e aguardando na fila '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			log.Info("⚠️ [WORKER] encerrado")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("canal de entregas fechado")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var payload LeadCapturedPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Errorf("❌ [WORKER] JSON inválido: %s", err)
		// Mensagem malformada: rejeita sem requeue pra não travar a fila.
		d.Nack(false, false)
		return
	}

	log.Debugf("📥 [WORKER] lead %s do funil %s", payload.LeadID, payload.FunnelID)

	if err := w.Handler.HandleLeadCaptured(ctx, payload); err != nil {
		log.WithError(err).WithField("lead_id", payload.LeadID).Error("❌ [WORKER] falha ao notificar dono, mandando pra DLQ")
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}
