package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func (p *Publisher) Notify(ctx context.Context, event models.StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		p.exchange,        // exchange
		RoutingKey(event), // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Status event published",
		zap.String("session_id", event.SessionID),
		zap.String("item_id", event.ItemID),
		zap.String("status", event.Status))
	return nil
}

func RoutingKey(event models.StatusEvent) string {
	return event.SessionID + "." + event.Status
}
