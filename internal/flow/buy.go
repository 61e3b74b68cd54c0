package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amanex/amanex/internal/chat"
	"github.com/amanex/amanex/internal/models"
	"github.com/amanex/amanex/internal/store"
)

// buyCallbackPrefix tags the inline "buy" buttons under browsed listings.
const buyCallbackPrefix = "buy_"

// startBuy opens the buyer dialogue at category selection.
func (e *Engine) startBuy(ctx context.Context, msg chat.InboundMessage) {
	e.states.Put(msg.ActorID, &BuyState{Step: BuyChooseCategory})
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "📥 What kind of account are you looking for?",
		Choices: categoryMenu(e.cfg.Categories),
	})
}

// handleBuy advances the buyer dialogue one step.
func (e *Engine) handleBuy(ctx context.Context, msg chat.InboundMessage, s *BuyState) {
	text := strings.TrimSpace(msg.Text)

	if isCancel(text) {
		e.states.Reset(msg.ActorID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Cancelled. Nothing was saved.",
			Choices: mainMenu(),
		})
		return
	}

	switch s.Step {
	case BuyChooseCategory:
		e.buyChooseCategory(ctx, msg, s, text)
	case BuyChooseSub:
		e.buyChooseSub(ctx, msg, s, text)
	case BuyChoosePayment:
		e.buyChoosePayment(ctx, msg, s, text)
	case BuyAwaitProof:
		e.buyAwaitProof(ctx, msg, s)
	case BuyAwaitContact:
		e.buyContact(ctx, msg, s, text)
	}
}

func (e *Engine) buyChooseCategory(ctx context.Context, msg chat.InboundMessage, s *BuyState, text string) {
	cat, ok := e.matchCategory(text)
	if !ok {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please pick a category from the buttons below.",
			Choices: categoryMenu(e.cfg.Categories),
		})
		return
	}

	// The catch-all category is not browsable; listings there have no
	// uniform subcategory to filter on.
	if len(cat.Subcategories) == 0 {
		e.states.Reset(msg.ActorID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Browsing works by specific category. Pick 📱 Social Media or 🎮 Games to see what's available.",
			Choices: mainMenu(),
		})
		return
	}

	s.Category = cat.Key
	s.Step = BuyChooseSub
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Which one exactly?",
		Choices: subcategoryMenu(cat.Subcategories),
	})
}

func (e *Engine) buyChooseSub(ctx context.Context, msg chat.InboundMessage, s *BuyState, text string) {
	if isBack(text) {
		s.Step = BuyChooseCategory
		s.Category = ""
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "📥 What kind of account are you looking for?",
			Choices: categoryMenu(e.cfg.Categories),
		})
		return
	}

	cat, _ := e.cfg.CategoryByKey(s.Category)
	sub, ok := matchSubcategory(cat.Subcategories, text)
	if !ok {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please pick one of the options below.",
			Choices: subcategoryMenu(cat.Subcategories),
		})
		return
	}
	s.Subcategory = sub

	listings, err := e.store.ActiveListings(s.Category, s.Subcategory, e.cfg.Listings.PageSize)
	if err != nil {
		e.logger.Printf("flow: browse %s/%s: %v", s.Category, s.Subcategory, err)
		e.states.Reset(msg.ActorID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Something went wrong loading listings. Please try again later.",
			Choices: mainMenu(),
		})
		return
	}
	if len(listings) == 0 {
		e.states.Reset(msg.ActorID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    fmt.Sprintf("No %s accounts available right now. Check back later!", sub),
			Choices: mainMenu(),
		})
		return
	}

	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:          fmt.Sprintf("Found %d listing(s). Tap Buy under the one you want:", len(listings)),
		RemoveChoices: true,
	})
	for i := range listings {
		e.sendListingCard(ctx, msg.ChatID, &listings[i])
	}
	// The user stays in this step until a Buy button is tapped.
}

// sendListingCard sends one browsable listing with its inline Buy button.
func (e *Engine) sendListingCard(ctx context.Context, chatID int64, listing *models.Listing) {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> — %s\n", listing.Subcategory, listing.TrackingCode)
	fmt.Fprintf(&b, "💵 %s\n\n", listing.Price)
	fmt.Fprintf(&b, "%s", listing.Description)

	out := chat.OutboundMessage{
		Text: b.String(),
		Action: &chat.InlineAction{
			Label: "🛒 Buy",
			Data:  fmt.Sprintf("%s%d", buyCallbackPrefix, listing.ID),
		},
	}
	if images := listing.Images(); len(images) > 0 {
		out.PhotoID = images[0]
	}
	e.reply(ctx, chatID, out)
}

// handleCallback processes inline-button presses. Only buy buttons exist.
func (e *Engine) handleCallback(ctx context.Context, msg chat.InboundMessage) {
	if !strings.HasPrefix(msg.Callback, buyCallbackPrefix) {
		e.ack(ctx, msg.CallbackID, "")
		return
	}
	id, err := strconv.ParseUint(msg.Callback[len(buyCallbackPrefix):], 10, 32)
	if err != nil {
		e.ack(ctx, msg.CallbackID, "This listing is no longer available.")
		return
	}

	listing, err := e.store.ListingByID(uint(id))
	if err != nil {
		e.logger.Printf("flow: callback listing %d: %v", id, err)
		e.ack(ctx, msg.CallbackID, "Something went wrong. Please try again.")
		return
	}
	// Buttons outlive the listings they point at; re-check before engaging.
	if listing == nil || listing.Status != models.ListingActive {
		e.ack(ctx, msg.CallbackID, "This listing is no longer available.")
		return
	}

	e.ack(ctx, msg.CallbackID, "")
	e.states.Put(msg.ActorID, &BuyState{
		Step:        BuyChoosePayment,
		Category:    listing.Category,
		Subcategory: listing.Subcategory,
		ListingID:   listing.ID,
	})
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text: fmt.Sprintf("You picked <b>%s</b> (%s) for %s.\n\nHow will you pay?",
			listing.Subcategory, listing.TrackingCode, listing.Price),
		Choices: paymentMenu(e.catalog.Labels()),
	})
}

func (e *Engine) buyChoosePayment(ctx context.Context, msg chat.InboundMessage, s *BuyState, text string) {
	method, ok := e.catalog.Match(text)
	if !ok {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please pick a payment method from the buttons below.",
			Choices: paymentMenu(e.catalog.Labels()),
		})
		return
	}

	s.Method = method.Key
	s.Step = BuyAwaitProof

	var b strings.Builder
	fmt.Fprintf(&b, "Pay via <b>%s</b>", method.Label)
	if method.Note != "" {
		fmt.Fprintf(&b, " (%s)", method.Note)
	}
	b.WriteString(".\n\n")
	if method.Destination != "" {
		fmt.Fprintf(&b, "Send the payment to: <code>%s</code>\n\n", method.Destination)
	}
	b.WriteString("Then send a screenshot of the payment as proof.")
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{Text: b.String(), Choices: cancelOnly()})
}

// buyAwaitProof accepts only a photo; anything else re-prompts.
func (e *Engine) buyAwaitProof(ctx context.Context, msg chat.InboundMessage, s *BuyState) {
	if !msg.IsPhoto() {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please send the payment screenshot as a photo.",
			Choices: cancelOnly(),
		})
		return
	}
	s.ProofID = msg.PhotoID
	s.Step = BuyAwaitContact
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Got it. Finally, how can we reach you? Send a phone number or @username.",
		Choices: cancelOnly(),
	})
}

// buyContact commits the order. The dialogue state is cleared no matter how
// the commit goes.
func (e *Engine) buyContact(ctx context.Context, msg chat.InboundMessage, s *BuyState, text string) {
	if text == "" {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please send your contact as text (phone number or @username).",
			Choices: cancelOnly(),
		})
		return
	}
	defer e.states.Reset(msg.ActorID)

	if s.ListingID == 0 || s.Method == "" || s.ProofID == "" {
		e.logger.Printf("flow: order commit for %d with incomplete state %+v", msg.ActorID, s)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Something unexpected happened. Please start over from the menu.",
			Choices: mainMenu(),
		})
		return
	}

	order, err := e.store.CreateOrder(store.OrderParams{
		ListingID:       s.ListingID,
		BuyerTelegramID: msg.ActorID,
		PaymentMethod:   s.Method,
		ProofFileID:     s.ProofID,
		BuyerContact:    text,
	})
	if err != nil {
		if errors.Is(err, store.ErrListingUnavailable) {
			e.reply(ctx, msg.ChatID, chat.OutboundMessage{
				Text: "😔 Sorry, this listing was just sold or removed. " +
					"Contact support about your payment and we will sort it out.",
				Choices: mainMenu(),
			})
			return
		}
		e.logger.Printf("flow: commit order for %d: %v", msg.ActorID, err)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Something went wrong saving your order. Please try again later.",
			Choices: mainMenu(),
		})
		return
	}

	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text: fmt.Sprintf("✅ Order received!\n\nYour tracking code is <code>%s</code>. "+
			"The operator will verify your payment and hand over the account shortly.",
			order.TrackingCode),
		Choices: mainMenu(),
	})

	listing, err := e.store.ListingByID(s.ListingID)
	if err != nil {
		e.logger.Printf("flow: load listing %d for notification: %v", s.ListingID, err)
	}
	e.notifier.NewOrder(ctx, order, listing)
}

// ack acknowledges a callback, logging failures.
func (e *Engine) ack(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := e.adapter.AckCallback(ctx, callbackID, text); err != nil {
		e.logger.Printf("flow: ack callback: %v", err)
	}
}
