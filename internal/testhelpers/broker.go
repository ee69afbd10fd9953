package testhelpers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// TestBroker is a containerized RabbitMQ.
type TestBroker struct {
	Container *rabbitmq.RabbitMQContainer
	AmqpURL   string
}

// NewTestBroker starts a RabbitMQ container and returns its AMQP URL.
// Call Close when done.
func NewTestBroker(t *testing.T) *TestBroker {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
		rabbitmq.WithAdminPassword("password"),
	)
	if err != nil {
		t.Fatalf("failed to start rabbitmq container: %s", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get amqp url: %s", err)
	}

	return &TestBroker{Container: container, AmqpURL: amqpURL}
}

// Close terminates the container.
func (tb *TestBroker) Close() {
	_ = tb.Container.Terminate(context.Background())
}
