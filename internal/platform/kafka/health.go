package kafka

import (
	"context"
	"fmt"
)

// Pinger is satisfied by *producer.Producer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck adapts a producer to the readiness probe signature.
func HealthCheck(p Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if p == nil {
			return fmt.Errorf("kafka producer not configured")
		}
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("no kafka brokers reachable: %w", err)
		}
		return nil
	}
}
