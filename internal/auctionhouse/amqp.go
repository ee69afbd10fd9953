package auctionhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/event"
)

const (
	// Exchange carries both directions of auction house traffic.
	Exchange = "auction.house"

	bidsRoutingKey   = "bids"
	eventsRoutingKey = "events"
	eventsQueue      = "auction-house.events"
)

// AMQPClient is a Client speaking JSON over RabbitMQ: bids are published
// to the exchange, notifications are consumed from a durable queue.
type AMQPClient struct {
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
}

// NewAMQPClient opens a channel on the given connection and declares the
// exchange and the notifications queue.
func NewAMQPClient(conn *amqp.Connection) (*AMQPClient, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := ch.QueueDeclare(
		eventsQueue, // name
		true,        // durable
		false,       // auto-delete
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(queue.Name, eventsRoutingKey, Exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	// Auto-ack: appending a polled notification to the log is not atomic
	// with the remote poll anyway.
	deliveries, err := ch.Consume(
		queue.Name, // queue
		"",         // consumer tag
		true,       // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return &AMQPClient{channel: ch, deliveries: deliveries}, nil
}

// Close closes the channel.
func (c *AMQPClient) Close() error {
	return c.channel.Close()
}

// PlaceBid implements Client.
func (c *AMQPClient) PlaceBid(ctx context.Context, item auction.ItemID, amount auction.Amount) error {
	body, err := json.Marshal(auction.ItemBid{Item: item, Price: amount})
	if err != nil {
		return fmt.Errorf("failed to marshal bid: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		Exchange,       // exchange
		bidsRoutingKey, // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   uuid.NewString(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish bid: %w", err)
	}
	return nil
}

// Poll implements Client.
func (c *AMQPClient) Poll(ctx context.Context, timeout time.Duration) (*event.AuctionHouseEvent, error) {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case d, ok := <-c.deliveries:
		if !ok {
			return nil, fmt.Errorf("auction house channel closed")
		}
		var e event.AuctionHouseEvent
		if err := json.Unmarshal(d.Body, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal auction house event: %w", err)
		}
		return &e, nil
	case <-deadline:
		return nil, nil
	case <-ctx.Done():
		return nil, nil
	}
}
