package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"item_requests/internal/domain/entity"
)

// Announcer posts completed trades to a chat, keeping a readable story of
// who traded with whom.
type Announcer struct {
	bot    *telego.Bot
	chatID int64
}

func NewAnnouncer(token string, chatID int64, options ...telego.BotOption) (*Announcer, error) {
	bot, err := telego.NewBot(token, options...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &Announcer{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (a *Announcer) Announce(ctx context.Context, trade entity.TradeCompleted) error {
	msg := tu.Message(
		tu.ID(a.chatID),
		FormatTrade(trade),
	).WithParseMode(telego.ModeHTML)

	if _, err := a.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// FormatTrade renders the announcement text.
func FormatTrade(trade entity.TradeCompleted) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🤝 <b>Trade completed</b>\n\n"+
		"🏕 <b>Colony:</b> %s\n"+
		"🐫 <b>Trader:</b> %s\n"+
		"💰 <b>Total:</b> %s silver\n",
		html.EscapeString(trade.PlayerID.String()),
		html.EscapeString(trade.CounterpartyID.String()),
		trade.Total.StringFixed(2),
	)

	if len(trade.Lines) > 0 {
		b.WriteString("\n")
	}

	for _, line := range trade.Lines {
		name := line.Item.String()
		if !line.Material.IsDefault() {
			name = line.Material.String() + " " + name
		}

		fmt.Fprintf(&b, "• %s x%d @ %s\n", html.EscapeString(name), line.Quantity, line.UnitPrice.StringFixed(2))
	}

	return b.String()
}
