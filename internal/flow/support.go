package flow

import (
	"context"
	"strings"

	"github.com/amanex/amanex/internal/chat"
)

// startSupport opens the single-step support dialogue.
func (e *Engine) startSupport(ctx context.Context, msg chat.InboundMessage) {
	e.states.Put(msg.ActorID, &SupportState{})
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text: "☎️ Describe your issue in one message. Include your tracking code " +
			"if you have one, and we will get back to you.",
		Choices: cancelOnly(),
	})
}

// handleSupport stores the support message and forwards it to the operator.
func (e *Engine) handleSupport(ctx context.Context, msg chat.InboundMessage) {
	text := strings.TrimSpace(msg.Text)

	if isCancel(text) {
		e.states.Reset(msg.ActorID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Cancelled.",
			Choices: mainMenu(),
		})
		return
	}
	if text == "" {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please describe your issue as text.",
			Choices: cancelOnly(),
		})
		return
	}
	defer e.states.Reset(msg.ActorID)

	ticket, err := e.store.CreateTicket(msg.ActorID, text)
	if err != nil {
		e.logger.Printf("flow: create ticket for %d: %v", msg.ActorID, err)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Something went wrong sending your message. Please try again later.",
			Choices: mainMenu(),
		})
		return
	}

	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "✅ Message sent. Support will reply to you here.",
		Choices: mainMenu(),
	})
	e.notifier.SupportTicket(ctx, ticket)
}
