package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/polywatch/service/metrics"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher defines the interface for publishing activity events to NATS.
type Publisher interface {
	// PublishActivity publishes a single activity event to JetStream.
	// The event is published to the subject "activity.{wallet_address}".
	PublishActivity(ctx context.Context, event *ActivityEvent) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes activity events to NATS JetStream.
type JetStreamPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	metrics *metrics.Metrics
	logger  *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for activity.
	StreamName = "ACTIVITY"

	// SubjectPrefix prefixes the wallet address in every subject.
	SubjectPrefix = "activity."

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = "activity.*"

	// StreamRetention is how long messages are retained.
	StreamRetention = 7 * 24 * time.Hour

	// DuplicateWindow bounds how long JetStream remembers message ids.
	DuplicateWindow = 10 * time.Minute
)

// Connect dials NATS with the reconnect policy shared by the publisher, the
// SSE stream and the CLI.
func Connect(natsURL, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// NewPublisher creates a new JetStream publisher.
// It connects to NATS and ensures the stream exists.
func NewPublisher(natsURL string, m *metrics.Metrics, logger *slog.Logger) (*JetStreamPublisher, error) {
	nc, err := Connect(natsURL, "polywatch-publisher")
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:      nc,
		js:      js,
		metrics: m,
		logger:  logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := EnsureStream(ctx, js, logger); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

// EnsureStream creates the activity stream if it doesn't exist.
func EnsureStream(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	stream, err := js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			logger.Debug("JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	logger.Info("creating JetStream stream", "stream", StreamName)

	_, err = js.CreateStream(ctx, StreamConfig())
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	logger.Info("JetStream stream created successfully", "stream", StreamName)
	return nil
}

// StreamConfig returns the configuration of the activity stream.
func StreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        StreamName,
		Description: "New activity records from watched Polymarket wallets",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Duplicates:  DuplicateWindow,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}
}

// PublishActivity publishes a single activity event. The message id is
// event.MsgID(), so the same record published twice inside the duplicate
// window is stored once.
func (p *JetStreamPublisher) PublishActivity(ctx context.Context, event *ActivityEvent) error {
	start := time.Now()
	subject := Subject(event.WalletAddress)

	data, err := json.Marshal(event)
	if err != nil {
		p.metrics.RecordNATSPublish("error", metrics.Since(start))
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	var opts []jetstream.PublishOpt
	if id := event.MsgID(); id != "" {
		opts = append(opts, jetstream.WithMsgID(id))
	}

	ack, err := p.js.Publish(ctx, subject, data, opts...)
	if err != nil {
		p.metrics.RecordNATSPublish("error", metrics.Since(start))
		return fmt.Errorf("failed to publish activity: %w", err)
	}

	status := "success"
	if ack.Duplicate {
		status = "duplicate"
	}
	p.metrics.RecordNATSPublish(status, metrics.Since(start))

	p.logger.Debug("published activity event",
		"subject", subject,
		"activity_id", event.Activity.ID,
		"wallet", event.WalletAddress,
		"duplicate", ack.Duplicate,
	)

	return nil
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
