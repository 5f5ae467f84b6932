package notify

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"futures_guard/pkg/logger"
)

// Notifier — канал для сообщений, требующих внимания человека.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Telegram шлёт сообщения через очередь с паузой между отправками,
// чтобы не упереться в лимиты Bot API. Переполненная очередь роняет
// сообщение, а не цикл монитора.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	queue  chan string
}

const (
	tgQueueSize = 64
	tgSendPace  = 2 * time.Second
)

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	t := &Telegram{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan string, tgQueueSize),
	}
	go t.worker()
	return t, nil
}

func (t *Telegram) Notify(_ context.Context, msg string) {
	select {
	case t.queue <- msg:
	default:
		logger.Warn("notify: telegram queue full, dropping message")
	}
}

func (t *Telegram) worker() {
	for msg := range t.queue {
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, msg)); err != nil {
			logger.Warn("notify: telegram send: %v", err)
		}
		time.Sleep(tgSendPace)
	}
}

// Stdout — заглушка для запуска без телеграма.
type Stdout struct{}

func (Stdout) Notify(_ context.Context, msg string) {
	logger.Info("notify: %s", msg)
}
