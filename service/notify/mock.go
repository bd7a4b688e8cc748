package notify

import (
	"context"
	"sync"
)

// MockNotifier records sent messages for tests and dry runs.
type MockNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

// NewMockNotifier creates a notifier that keeps messages in memory.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Name identifies the sink in metrics.
func (m *MockNotifier) Name() string {
	return "mock"
}

// Send records text.
func (m *MockNotifier) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &DeliveryError{Sink: "mock", Err: m.err}
	}
	m.messages = append(m.messages, text)
	return nil
}

// SetError makes subsequent sends fail with err; nil restores success.
func (m *MockNotifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Messages returns a copy of everything sent so far.
func (m *MockNotifier) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}

// Reset clears recorded messages.
func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
