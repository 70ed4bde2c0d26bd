// Package rabbitmq publishes completed-collection events for downstream
// consumers, primarily the ranking/points accumulator.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/streadway/amqp"

	"collection-service/materials"
	"collection-service/models"
)

// Publisher represents a RabbitMQ publisher instance.
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewPublisher connects to RabbitMQ and declares a durable direct
// exchange for collection events.
func NewPublisher(amqpURL, exchangeName, routingKey string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchangeName,
		routingKey: routingKey,
	}, nil
}

// Publish sends a JSON message to the exchange with the configured
// routing key.
func (p *Publisher) Publish(message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	err = p.channel.Publish(
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		publishing,   // message
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// OnTransition is subscribed to the store; it emits a CompletedEvent
// whenever a collection reaches the completed status. The points/ranking
// accumulator consumes these downstream.
func (p *Publisher) OnTransition(prev models.CollectionStatus, req models.CollectionRequest, tr models.Transition) {
	if req.Status != models.StatusCompleted {
		return
	}
	event := models.CompletedEvent{
		CollectionID: req.ID,
		RequesterID:  req.RequesterID,
		CollectorID:  req.CollectorID,
		MaterialType: req.MaterialType,
		Points:       materials.Points(req.MaterialType),
		CompletedAt:  req.UpdatedAt,
	}
	if err := p.Publish(event); err != nil {
		log.Errorf("Failed to publish completed event for collection %s: %v", req.ID, err)
	}
}
