// Package telegram implements the chat Adapter for Telegram via long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amanex/amanex/internal/chat"
)

const (
	// pollTimeout is the long-poll timeout passed to getUpdates.
	pollTimeout = 30 * time.Second
	// faultBackoff is the pause after a generic polling fault.
	faultBackoff = 5 * time.Second
	// conflictBackoff is the longer pause after a 409 conflict, which means
	// another consumer is polling with the same token. Resuming too quickly
	// just steals updates back and forth.
	conflictBackoff = 30 * time.Second
)

// api abstracts the tgbotapi.BotAPI methods we use, enabling test mocks.
type api interface {
	GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Adapter implements chat.Adapter for Telegram.
type Adapter struct {
	token string
	api   api

	mu        sync.Mutex
	connected bool
	closed    bool
	polling   bool
	inbound   chan chat.InboundMessage

	faultBackoff    time.Duration
	conflictBackoff time.Duration
}

// Opts holds parameters for creating a Telegram Adapter.
type Opts struct {
	Token string
	// For testing: inject a mock API instead of the real Telegram client.
	API api
}

// New creates a Telegram Adapter.
func New(opts Opts) (*Adapter, error) {
	if opts.API == nil && opts.Token == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	return &Adapter{
		token:           opts.Token,
		api:             opts.API,
		inbound:         make(chan chat.InboundMessage, 100),
		faultBackoff:    faultBackoff,
		conflictBackoff: conflictBackoff,
	}, nil
}

// Connect validates the token against the Telegram API.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("telegram: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.api == nil {
		bot, err := tgbotapi.NewBotAPI(a.token)
		if err != nil {
			return fmt.Errorf("telegram: connect: %w", err)
		}
		log.Printf("telegram: connected as @%s (ID: %d)", bot.Self.UserName, bot.Self.ID)
		a.api = bot
	}

	a.connected = true
	return nil
}

// Listen starts the supervised poll loop and returns the inbound channel.
// Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan chat.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("telegram: not connected")
	}
	if !a.polling {
		a.polling = true
		go a.poll(ctx)
	}
	return a.inbound, nil
}

// poll runs getUpdates until the context is cancelled. Faults never kill the
// loop: a generic fault backs off briefly, a 409 duplicate-consumer conflict
// backs off longer. The inbound channel is closed on exit.
func (a *Adapter) poll(ctx context.Context) {
	defer close(a.inbound)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(pollTimeout / time.Second)

	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := a.api.GetUpdates(cfg)
		if err != nil {
			wait := a.faultBackoff
			if isConflict(err) {
				wait = a.conflictBackoff
				log.Printf("telegram: poll conflict (another consumer on this token) — retrying in %v", wait)
			} else {
				log.Printf("telegram: poll: %v — retrying in %v", err, wait)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= cfg.Offset {
				cfg.Offset = update.UpdateID + 1
			}
			if msg, ok := translate(update); ok {
				select {
				case a.inbound <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// Send delivers a message to Telegram, translating the outbound shape into
// text or photo sends with the appropriate keyboard markup.
func (a *Adapter) Send(ctx context.Context, msg chat.OutboundMessage) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("telegram: not connected")
	}
	a.mu.Unlock()

	markup := buildMarkup(msg)

	if msg.PhotoID != "" {
		photo := tgbotapi.NewPhoto(msg.ChatID, tgbotapi.FileID(msg.PhotoID))
		photo.Caption = msg.Text
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = markup
		if _, err := a.api.Send(photo); err != nil {
			return fmt.Errorf("telegram: send photo: %w", err)
		}
		return nil
	}

	text := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	text.ParseMode = tgbotapi.ModeHTML
	text.ReplyMarkup = markup
	if _, err := a.api.Send(text); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// AckCallback answers an inline-button callback query.
func (a *Adapter) AckCallback(ctx context.Context, callbackID, text string) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("telegram: not connected")
	}
	a.mu.Unlock()

	if _, err := a.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("telegram: ack callback: %w", err)
	}
	return nil
}

// Close shuts down the adapter. The poll loop exits with its context; the
// inbound channel closes with it.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.connected = false
	return nil
}

// translate converts a Telegram update to an InboundMessage. Returns false
// for updates the marketplace does not consume (edits, bot messages, etc.).
func translate(update tgbotapi.Update) (chat.InboundMessage, bool) {
	if cb := update.CallbackQuery; cb != nil && cb.From != nil {
		msg := chat.InboundMessage{
			ActorID:    cb.From.ID,
			Username:   cb.From.UserName,
			FullName:   fullName(cb.From),
			Callback:   cb.Data,
			CallbackID: cb.ID,
			Timestamp:  time.Now(),
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			msg.ChatID = cb.Message.Chat.ID
		}
		return msg, true
	}

	m := update.Message
	if m == nil || m.From == nil || m.From.IsBot || m.Chat == nil {
		return chat.InboundMessage{}, false
	}

	msg := chat.InboundMessage{
		ActorID:   m.From.ID,
		ChatID:    m.Chat.ID,
		Username:  m.From.UserName,
		FullName:  fullName(m.From),
		Text:      m.Text,
		Timestamp: m.Time(),
	}
	if len(m.Photo) > 0 {
		// Telegram sends multiple resolutions; the last is the largest.
		msg.PhotoID = m.Photo[len(m.Photo)-1].FileID
		if msg.Text == "" {
			msg.Text = m.Caption
		}
	}
	return msg, true
}

// buildMarkup translates the outbound keyboard shape into Telegram markup.
func buildMarkup(msg chat.OutboundMessage) interface{} {
	if msg.Action != nil {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(msg.Action.Label, msg.Action.Data),
			),
		)
	}
	if len(msg.Choices) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(msg.Choices))
		for _, choiceRow := range msg.Choices {
			row := make([]tgbotapi.KeyboardButton, 0, len(choiceRow))
			for _, label := range choiceRow {
				row = append(row, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, row)
		}
		return tgbotapi.NewReplyKeyboard(rows...)
	}
	if msg.RemoveChoices {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	return nil
}

// fullName joins the Telegram first/last names.
func fullName(u *tgbotapi.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return strings.TrimSpace(name)
}

// isConflict reports whether err is a 409 response, meaning another process
// is long-polling with the same bot token.
func isConflict(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.Code == 409
	}
	return strings.Contains(err.Error(), "409")
}
