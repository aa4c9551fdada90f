package notify

import (
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"trade_tracker/internal/models"
	"trade_tracker/pkg/logger"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram: пассивный нотифайер в один чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram")
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("telegram send: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Stdout: заглушка, всё пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { logger.Info("%s", msg) }
func (s *Stdout) Sendf(format string, args ...any) { logger.Info(format, args...) }

// New выбирает Telegram, если заданы токен и чат, иначе Stdout.
func New(token string, chatID int64) (Notifier, error) {
	if token == "" || chatID == 0 {
		return NewStdout(), nil
	}
	return NewTelegram(token, chatID)
}

// FormatHalt renders an execution failure report.
func FormatHalt(instrument string, strategy models.StrategyType, err error) string {
	return fmt.Sprintf("⛔️ %s [%s] остановлен: %v", instrument, strategy, err)
}

// FormatSummary renders end-of-run positions, one line per instrument.
func FormatSummary(runID string, summaries []models.PositionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Backtest %s завершён:\n", runID)
	for _, s := range summaries {
		fmt.Fprintf(&b, "- %s qty=%.4f pnl=%.4f trades=%d stops=%d hits=%d\n",
			s.Instrument, s.Quantity, s.RealizedPnL, s.Trades, s.StopUpdates, s.StopHits)
	}
	return b.String()
}
