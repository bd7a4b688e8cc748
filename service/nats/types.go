package nats

import (
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/google/uuid"
)

// ActivityEvent represents a new activity record published to NATS.
// This is published to the subject "activity.{wallet_address}" in JetStream.
type ActivityEvent struct {
	// EventID is unique per publish; the record itself is identified by
	// Activity.ID.
	EventID string `json:"event_id"`

	// Wallet information
	WalletAddress string `json:"wallet_address"`
	WalletLabel   string `json:"wallet_label,omitempty"`

	Activity polymarket.Activity `json:"activity"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// FromActivity wraps a record observed for wallet into an event.
func FromActivity(wallet, label string, a polymarket.Activity) *ActivityEvent {
	return &ActivityEvent{
		EventID:       uuid.NewString(),
		WalletAddress: wallet,
		WalletLabel:   label,
		Activity:      a,
		PublishedAt:   time.Now().UTC(),
	}
}

// MsgID identifies the record for JetStream deduplication. A transaction
// hash alone is not enough: one transaction can carry fills for several
// watched wallets and several fills for one wallet. Empty when the record
// has no transaction hash.
func (e *ActivityEvent) MsgID() string {
	a := e.Activity
	if a.ID == "" {
		return ""
	}
	return strings.Join([]string{
		e.WalletAddress,
		a.ID,
		a.Type,
		a.Asset,
		strconv.Itoa(a.OutcomeIndex),
		a.Side,
		a.Size.String(),
		a.Price.String(),
		strconv.FormatInt(a.Timestamp, 10),
	}, ":")
}

// Subject returns the JetStream subject for a wallet.
func Subject(wallet string) string {
	return SubjectPrefix + wallet
}
