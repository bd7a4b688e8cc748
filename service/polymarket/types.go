package polymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Activity is one trading event reported by the data API for a wallet.
// This is our domain model; field tags follow the API's camelCase shape so
// the record can be round-tripped through JSON for jq filtering and events.
type Activity struct {
	ID           string          `json:"transactionHash"`
	Wallet       string          `json:"proxyWallet"`
	Timestamp    int64           `json:"timestamp"`
	Type         string          `json:"type"`
	ConditionID  string          `json:"conditionId"`
	Asset        string          `json:"asset"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	EventSlug    string          `json:"eventSlug"`
	Outcome      string          `json:"outcome"`
	OutcomeIndex int             `json:"outcomeIndex"`
	Side         string          `json:"side"`
	Size         decimal.Decimal `json:"size"`
	Price        decimal.Decimal `json:"price"`
	USDCSize     decimal.Decimal `json:"usdcSize"`
	Name         string          `json:"name"`
	Pseudonym    string          `json:"pseudonym"`
}

// UnmarshalJSON accepts the timestamp as a JSON number or a numeric string.
func (a *Activity) UnmarshalJSON(data []byte) error {
	type activity Activity
	aux := struct {
		*activity
		Timestamp json.RawMessage `json:"timestamp"`
	}{activity: (*activity)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	a.Timestamp = ts
	return nil
}

func parseTimestamp(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("invalid timestamp %s: %w", raw, err)
		}
		if s == "" {
			return 0, nil
		}
	}

	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts, nil
}

// Value returns the USD value of the activity. The API reports it directly as
// usdcSize; older or non-trade records may omit it, in which case it is
// derived from size and price.
func (a Activity) Value() decimal.Decimal {
	if !a.USDCSize.IsZero() {
		return a.USDCSize
	}
	return a.Size.Mul(a.Price)
}

// Time returns the activity timestamp as a time.Time in UTC.
func (a Activity) Time() time.Time {
	return time.Unix(a.Timestamp, 0).UTC()
}

// DisplayName returns the trader's profile name, falling back to the pseudonym.
func (a Activity) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Pseudonym
}

// Market is a gamma API market, trimmed to what we display.
type Market struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	ConditionID string `json:"conditionId"`
	Slug        string `json:"slug"`
	EndDate     string `json:"endDate"`
	Active      bool   `json:"active"`
	Closed      bool   `json:"closed"`
	// TagID is set by MarketsByTags to the tag the market was found under.
	TagID string `json:"tagId,omitempty"`
}
