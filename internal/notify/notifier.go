package notify

import (
	"context"
	"html"
	"strings"

	"breakout_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier: best-effort канал уведомлений. Notify не блокирует и не падает.
type Notifier interface {
	Notify(text string)
}

// StatusProvider отвечает на команды /status и /positions.
type StatusProvider interface {
	StatusText() string
	PositionsText() string
}

type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram: пассивный нотифайер + команды /status и /positions.
type Telegram struct {
	bot    botAPI
	chatID int64
	status StatusProvider
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
	}, nil
}

// SetStatusProvider: источник ответов на команды, ставится после сборки раннера.
func (t *Telegram) SetStatusProvider(p StatusProvider) { t.status = p }

// Notify шлёт HTML-сообщение. Ошибки только логируются.
func (t *Telegram) Notify(text string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	msg := tgbot.NewMessage(t.chatID, text)
	msg.ParseMode = tgbot.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		logger.Warn("[NOTIFY] telegram send: %v", err)
	}
}

func (t *Telegram) handleCommand(cmd string) string {
	if t.status == nil {
		return "⏳ Бот ещё запускается"
	}
	switch cmd {
	case "status":
		return t.status.StatusText()
	case "positions":
		return t.status.PositionsText()
	case "start", "help":
		return "Команды: /status, /positions"
	}
	return ""
}

// Start: long-polling команд из настроенного чата.
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
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				if reply := t.handleCommand(upd.Message.Command()); reply != "" {
					t.Notify(reply)
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// Stdout: всё в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Notify(text string) {
	logger.Info("[NOTIFY] %s", stripTags(text))
}

// Escape экранирует пользовательский текст для HTML parse mode.
func Escape(s string) string { return html.EscapeString(s) }

func stripTags(s string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "", "<code>", "", "</code>", "")
	return html.UnescapeString(r.Replace(s))
}
