package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amanex/amanex/internal/chat"
	"github.com/amanex/amanex/internal/config"
	"github.com/amanex/amanex/internal/store"
)

// startSell opens the seller dialogue at category selection.
func (e *Engine) startSell(ctx context.Context, msg chat.InboundMessage) {
	e.states.Put(msg.ActorID, &SellState{
		Step:    SellChooseCategory,
		Details: map[string]string{},
	})
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "📤 What kind of account are you selling?",
		Choices: categoryMenu(e.cfg.Categories),
	})
}

// handleSell advances the seller dialogue one step.
func (e *Engine) handleSell(ctx context.Context, msg chat.InboundMessage, s *SellState) {
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
	case SellChooseCategory:
		e.sellChooseCategory(ctx, msg, s, text)
	case SellChooseSub:
		e.sellChooseSub(ctx, msg, s, text)
	case SellDescription:
		e.sellDescription(ctx, msg, s, text)
	case SellPhotos:
		e.sellPhotos(ctx, msg, s, text)
	case SellPrice:
		e.sellPrice(ctx, msg, s, text)
	case SellPayments:
		e.sellPayments(ctx, msg, s, text)
	case SellAwaitPayDetail:
		e.sellPayDetail(ctx, msg, s, text)
	case SellContact:
		e.sellContact(ctx, msg, s, text)
	}
}

func (e *Engine) sellChooseCategory(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	cat, ok := e.matchCategory(text)
	if !ok {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please pick a category from the buttons below.",
			Choices: categoryMenu(e.cfg.Categories),
		})
		return
	}
	s.Category = cat.Key

	// The catch-all category has no subcategories; go straight to the
	// description.
	if len(cat.Subcategories) == 0 {
		s.Subcategory = cat.Key
		s.Step = SellDescription
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Describe the account: what is it, what does it include?",
			Choices: cancelOnly(),
		})
		return
	}

	s.Step = SellChooseSub
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Which one exactly?",
		Choices: subcategoryMenu(cat.Subcategories),
	})
}

func (e *Engine) sellChooseSub(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	if isBack(text) {
		s.Step = SellChooseCategory
		s.Category = ""
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "📤 What kind of account are you selling?",
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
	s.Step = SellDescription
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Describe the account: what is it, what does it include?",
		Choices: cancelOnly(),
	})
}

func (e *Engine) sellDescription(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	if text == "" {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please send a text description of the account.",
			Choices: cancelOnly(),
		})
		return
	}
	s.Description = text
	s.Step = SellPhotos
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Now send one or more screenshots of the account. Press ✅ Done when finished.",
		Choices: photosMenu(),
	})
}

func (e *Engine) sellPhotos(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	if msg.IsPhoto() {
		s.Images = append(s.Images, msg.PhotoID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    fmt.Sprintf("📷 Got it (%d so far). Send more, or press ✅ Done.", len(s.Images)),
			Choices: photosMenu(),
		})
		return
	}

	if isDone(text) {
		if len(s.Images) == 0 {
			e.reply(ctx, msg.ChatID, chat.OutboundMessage{
				Text:    "At least one screenshot is required. Please send a photo.",
				Choices: photosMenu(),
			})
			return
		}
		s.Step = SellPrice
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text: "How much are you asking? State the price and currency.\n\n" +
				"Note: a 5% commission is deducted from the sale price.",
			Choices: cancelOnly(),
		})
		return
	}

	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Please send a photo, or press ✅ Done when finished.",
		Choices: photosMenu(),
	})
}

func (e *Engine) sellPrice(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	if text == "" {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please state the price as text, e.g. \"20 USDT\".",
			Choices: cancelOnly(),
		})
		return
	}
	s.Price = text
	s.Step = SellPayments
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Which payment methods do you accept? Pick one or more, then press ✅ Done.",
		Choices: paymentMenu(e.catalog.Labels()),
	})
}

func (e *Engine) sellPayments(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	if isDone(text) {
		if len(s.Methods) == 0 {
			e.reply(ctx, msg.ChatID, chat.OutboundMessage{
				Text:    "Pick at least one payment method first.",
				Choices: paymentMenu(e.catalog.Labels()),
			})
			return
		}
		s.Step = SellContact
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Finally, how can buyers reach you? Send a phone number or @username.",
			Choices: cancelOnly(),
		})
		return
	}

	method, ok := e.catalog.Match(text)
	if !ok {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please pick payment methods from the buttons, then press ✅ Done.",
			Choices: paymentMenu(e.catalog.Labels()),
		})
		return
	}

	for _, key := range s.Methods {
		if key == method.Key {
			e.reply(ctx, msg.ChatID, chat.OutboundMessage{
				Text:    fmt.Sprintf("%s is already selected. Pick another, or press ✅ Done.", method.Label),
				Choices: paymentMenu(e.catalog.Labels()),
			})
			return
		}
	}

	s.Methods = append(s.Methods, method.Key)
	s.PendingMethod = method.Key
	s.Step = SellAwaitPayDetail
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    fmt.Sprintf("For %s, send %s where you want to receive the money.", method.Label, method.DetailPrompt),
		Choices: cancelOnly(),
	})
}

func (e *Engine) sellPayDetail(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	if text == "" {
		method, _ := e.catalog.Get(s.PendingMethod)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    fmt.Sprintf("Please send %s as text.", method.DetailPrompt),
			Choices: cancelOnly(),
		})
		return
	}
	if s.Details == nil {
		s.Details = map[string]string{}
	}
	s.Details[s.PendingMethod] = text
	s.PendingMethod = ""
	s.Step = SellPayments
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text:    "Saved. Pick another payment method, or press ✅ Done.",
		Choices: paymentMenu(e.catalog.Labels()),
	})
}

// sellContact commits the listing. The dialogue state is cleared no matter
// how the commit goes: a failed commit should not strand the user mid-flow.
func (e *Engine) sellContact(ctx context.Context, msg chat.InboundMessage, s *SellState, text string) {
	if text == "" {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please send your contact as text (phone number or @username).",
			Choices: cancelOnly(),
		})
		return
	}
	defer e.states.Reset(msg.ActorID)

	listing, err := e.store.CreateListing(store.ListingParams{
		SellerTelegramID: msg.ActorID,
		Category:         s.Category,
		Subcategory:      s.Subcategory,
		Description:      s.Description,
		Images:           s.Images,
		Price:            s.Price,
		Methods:          s.Methods,
		Details:          s.Details,
		SellerContact:    text,
		Status:           e.cfg.Listings.DefaultStatus,
	})
	if err != nil {
		e.logger.Printf("flow: commit listing for %d: %v", msg.ActorID, err)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Something went wrong saving your listing. Please try again later.",
			Choices: mainMenu(),
		})
		return
	}

	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text: fmt.Sprintf("✅ Listing submitted!\n\nYour tracking code is <code>%s</code>. "+
			"Keep it for any follow-up with support.", listing.TrackingCode),
		Choices: mainMenu(),
	})
	e.notifier.NewListing(ctx, listing)
}

// matchCategory resolves category button text, tolerating decoration around
// the label.
func (e *Engine) matchCategory(text string) (config.Category, bool) {
	for _, c := range e.cfg.Categories {
		if matchesButton(text, c.Label) {
			return c, true
		}
	}
	return config.Category{}, false
}

// matchSubcategory resolves subcategory button text case-insensitively.
func matchSubcategory(subs []string, text string) (string, bool) {
	for _, sub := range subs {
		if matchesButton(text, sub) {
			return sub, true
		}
	}
	return "", false
}
