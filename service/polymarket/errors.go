package polymarket

import "fmt"

// FetchError reports a failed activity fetch for one wallet. The poller
// recovers from it by skipping the wallet for the current tick.
type FetchError struct {
	Wallet     string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch activity for %s: status %d: %v", e.Wallet, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch activity for %s: %v", e.Wallet, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
