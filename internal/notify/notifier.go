package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"turtle_bot/internal/models"
	"turtle_bot/pkg/logger"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// StatusFunc отдаёт текст для /status. Вызывается из горутины бота,
// поэтому должен читать только потокобезопасное состояние.
type StatusFunc func() string

// Telegram - пассивный нотифайер + команда /status.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	status StatusFunc

	mu    sync.RWMutex
	extra map[string]StatusFunc
}

func NewTelegram(token string, chatID int64, status StatusFunc) (*Telegram, error) {
	return newTelegram(token, chatID, status, tgbot.APIEndpoint)
}

func newTelegram(token string, chatID int64, status StatusFunc, endpoint string) (*Telegram, error) {
	b, err := tgbot.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 40 * time.Second})
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		status: status,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Error("[TG] send: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Handle добавляет команду /<cmd>. Встроенные status/positions/ping не
// перекрываются.
func (t *Telegram) Handle(cmd string, fn StatusFunc) {
	if t == nil || fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.extra == nil {
		t.extra = make(map[string]StatusFunc)
	}
	t.extra[strings.TrimPrefix(cmd, "/")] = fn
}

func (t *Telegram) handleCommand(cmd string) {
	switch cmd {
	case "status", "positions":
		if t.status == nil {
			t.Send("❗️ Стратегия ещё не запущена")
			return
		}
		t.Send(t.status())
	case "ping":
		t.Send("🏓 pong")
	default:
		t.mu.RLock()
		fn := t.extra[cmd]
		t.mu.RUnlock()
		if fn != nil {
			t.Send(fn())
		}
	}
}

// Start: long-polling для команд из нашего чата.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message != nil && upd.Message.Chat != nil &&
					upd.Message.Chat.ID == t.chatID && upd.Message.IsCommand() {
					t.handleCommand(upd.Message.Command())
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {
	if t != nil && t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
}

// Stdout - заглушка, всё пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { logger.Info("[NOTIFY] %s", msg) }
func (s *Stdout) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }

// FormatIntent - короткое сообщение об ордере.
func FormatIntent(in models.OrderIntent, mode string) string {
	emoji := "🟢"
	if in.Side == models.SideSell {
		emoji = "🔴"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s на %.2f USDT [%s]\n", emoji, in.Symbol, in.Side, in.QuoteQty, mode)
	fmt.Fprintf(&b, "• Свеча: %s\n", in.Time().UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "• Причина: %s\n", in.Reason)
	fmt.Fprintf(&b, "• id: %s", in.ClientOrderID)
	return b.String()
}
