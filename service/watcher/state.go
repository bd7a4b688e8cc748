package watcher

import (
	"sort"

	"github.com/brojonat/polywatch/service/polymarket"
)

// WalletState is the per-wallet cursor. It is owned by exactly one polling
// loop and never shared, so it needs no locking.
type WalletState struct {
	Address string
	Label   string
	// Cursor is the highest activity timestamp seen so far (unix seconds).
	Cursor int64
}

// Advance returns the records strictly newer than the cursor, oldest first,
// and moves the cursor to the highest timestamp among them. Records at or
// below the cursor have already been seen. The cursor never moves backwards.
func (s *WalletState) Advance(records []polymarket.Activity) []polymarket.Activity {
	var fresh []polymarket.Activity
	for _, r := range records {
		if r.Timestamp > s.Cursor {
			fresh = append(fresh, r)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Timestamp < fresh[j].Timestamp
	})
	s.Cursor = fresh[len(fresh)-1].Timestamp

	return fresh
}
