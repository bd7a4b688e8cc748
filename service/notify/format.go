package notify

import (
	"html/template"
	"strings"

	"github.com/brojonat/polywatch/service/polymarket"
)

// TimeLayout is used for timestamps in messages and console output.
const TimeLayout = "2006-01-02 15:04:05 MST"

// activityTemplate targets Telegram's HTML parse mode. html/template escapes
// every field, so market titles containing <, > or & cannot break the markup.
var activityTemplate = template.Must(template.New("activity").Parse(
	`🆕 <b>New Activity Alert!</b>

<b>Wallet:</b> {{.Wallet}}
📊 <b>Market:</b> {{.Market}}
👀 <b>Type:</b> {{.Type}}
🎯 <b>Outcome:</b> {{.Outcome}}
💰 <b>Size:</b> {{.Size}} shares @ ${{.Price}}
📈 <b>Side:</b> {{.Side}}
💸 <b>Value:</b> ${{.Value}}
⏰ <b>Time:</b> {{.Time}}`))

type activityView struct {
	Wallet  string
	Market  string
	Type    string
	Outcome string
	Size    string
	Price   string
	Side    string
	Value   string
	Time    string
}

// FormatActivity renders a into the fixed alert template. label identifies
// the watched wallet; when empty the trader's profile name is used.
func FormatActivity(a polymarket.Activity, label string) string {
	wallet := label
	if wallet == "" {
		wallet = a.DisplayName()
	}
	if wallet == "" {
		wallet = a.Wallet
	}

	view := activityView{
		Wallet:  orNA(wallet),
		Market:  orNA(a.Title),
		Type:    orNA(a.Type),
		Outcome: orNA(a.Outcome),
		Size:    a.Size.String(),
		Price:   a.Price.String(),
		Side:    orNA(a.Side),
		Value:   a.Value().StringFixed(2),
		Time:    a.Time().Format(TimeLayout),
	}

	var b strings.Builder
	if err := activityTemplate.Execute(&b, view); err != nil {
		// Only reachable if the template and view drift apart.
		return "New activity: " + template.HTMLEscapeString(a.Title)
	}
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
