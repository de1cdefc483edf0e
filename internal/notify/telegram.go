package notify

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier отправляет готовый текст во внешний канал
type Notifier interface {
	SendMessage(text string) error
}

// TelegramNotifier Telegram-уведомления
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier подключается к Bot API. Пустой токен или chat_id
// означает отключенные уведомления, возвращается Nop.
func NewTelegramNotifier(token, chatID string, timeout time.Duration) (Notifier, error) {
	if token == "" || chatID == "" {
		return Nop{}, nil
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("некорректный chat_id %q: %w", chatID, err)
	}

	return newTelegramNotifier(token, id, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
}

func newTelegramNotifier(token string, chatID int64, endpoint string, client *http.Client) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Telegram: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// SendMessage отправляет текстовое сообщение в HTML-разметке
func (tn *TelegramNotifier) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(tn.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := tn.bot.Send(msg); err != nil {
		return fmt.Errorf("ошибка отправки в Telegram: %w", err)
	}
	return nil
}

// Nop отключенный канал уведомлений
type Nop struct{}

// SendMessage ничего не делает
func (Nop) SendMessage(string) error { return nil }
