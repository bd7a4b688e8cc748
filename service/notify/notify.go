// Package notify renders activity records into chat messages and delivers them.
package notify

import (
	"context"
	"fmt"
)

// Notifier delivers a rendered message to a single configured channel.
// Implementations must be safe for concurrent use; messages from different
// wallets may interleave in any order.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// SinkName returns n's name for logs and metrics.
func SinkName(n Notifier) string {
	if named, ok := n.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "notifier"
}

// DeliveryError reports a failed notification. It is never retried.
type DeliveryError struct {
	Sink string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
