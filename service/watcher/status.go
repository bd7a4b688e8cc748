package watcher

import (
	"sync"
	"time"
)

// WalletStatus is a point-in-time snapshot of one wallet's polling loop.
type WalletStatus struct {
	Address        string     `json:"address"`
	Label          string     `json:"label,omitempty"`
	Cursor         int64      `json:"cursor"`
	LastPoll       *time.Time `json:"last_poll,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	Ticks          int64      `json:"ticks"`
	FetchErrors    int64      `json:"fetch_errors"`
	NewActivity    int64      `json:"new_activity"`
	Filtered       int64      `json:"filtered"`
	Notified       int64      `json:"notified"`
	DeliveryErrors int64      `json:"delivery_errors"`
}

// Registry holds the latest status of every watched wallet. Loops write
// copies into it; the HTTP API reads copies out. Cursors are never read back
// from the registry.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	wallets map[string]*WalletStatus
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{wallets: make(map[string]*WalletStatus)}
}

// Register adds a wallet with its initial cursor. Registering an address
// twice keeps the first entry.
func (r *Registry) Register(address, label string, cursor int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.wallets[address]; ok {
		return
	}
	r.order = append(r.order, address)
	r.wallets[address] = &WalletStatus{
		Address: address,
		Label:   label,
		Cursor:  cursor,
	}
}

// List returns every wallet in registration order.
func (r *Registry) List() []WalletStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]WalletStatus, 0, len(r.order))
	for _, addr := range r.order {
		out = append(out, copyStatus(r.wallets[addr]))
	}
	return out
}

// Get returns the status of one wallet.
func (r *Registry) Get(address string) (WalletStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.wallets[address]
	if !ok {
		return WalletStatus{}, false
	}
	return copyStatus(s), true
}

// update applies fn to a wallet's status under the write lock. Unknown
// addresses are ignored.
func (r *Registry) update(address string, fn func(*WalletStatus)) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.wallets[address]; ok {
		fn(s)
	}
}

func copyStatus(s *WalletStatus) WalletStatus {
	out := *s
	if s.LastPoll != nil {
		t := *s.LastPoll
		out.LastPoll = &t
	}
	return out
}
