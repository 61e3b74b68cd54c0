package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amanex/amanex/internal/chat"
	"github.com/amanex/amanex/internal/models"
)

// handleAdmin advances the operator dialogue. Only the configured operator
// ever gets an AdminState, but the gate is re-checked anyway.
func (e *Engine) handleAdmin(ctx context.Context, msg chat.InboundMessage, s *AdminState) {
	if msg.ActorID != e.cfg.AdminID {
		e.states.Reset(msg.ActorID)
		return
	}

	text := strings.TrimSpace(msg.Text)

	if isCancel(text) {
		e.states.Reset(msg.ActorID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Left the admin panel.",
			Choices: mainMenu(),
		})
		return
	}

	switch s.Step {
	case AdminMenu:
		e.adminMenuSelect(ctx, msg, s, text)
	case AdminFindListing:
		e.adminFindListing(ctx, msg.ChatID, text)
		s.Step = AdminMenu
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{Text: "🛠 Admin panel", Choices: adminMenu()})
	case AdminFindOrder:
		e.adminFindOrder(ctx, msg.ChatID, text)
		s.Step = AdminMenu
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{Text: "🛠 Admin panel", Choices: adminMenu()})
	}
}

func (e *Engine) adminMenuSelect(ctx context.Context, msg chat.InboundMessage, s *AdminState, text string) {
	switch {
	case matchesButton(text, BtnAdminFindListing):
		s.Step = AdminFindListing
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Send the listing number (e.g. 12).",
			Choices: cancelOnly(),
		})
	case matchesButton(text, BtnAdminFindOrder):
		s.Step = AdminFindOrder
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Send the order number (e.g. 5).",
			Choices: cancelOnly(),
		})
	case matchesButton(text, BtnAdminPending):
		e.adminListListings(ctx, msg.ChatID, models.ListingPending)
	case matchesButton(text, BtnAdminPaid):
		e.adminListOrders(ctx, msg.ChatID, models.OrderPaid)
	case matchesButton(text, BtnAdminBackup):
		e.runBackup(ctx, msg.ChatID)
	default:
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Pick an action from the panel below.",
			Choices: adminMenu(),
		})
	}
}

// adminFindListing looks up one listing by sequence number and prints its
// full record, including the operator quick commands that apply to it.
func (e *Engine) adminFindListing(ctx context.Context, chatID int64, arg string) {
	seq, err := parseSeq(arg)
	if err != nil {
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "That is not a valid listing number."})
		return
	}
	listing, err := e.store.ListingBySeq(seq)
	if err != nil {
		e.logger.Printf("flow: find listing %d: %v", seq, err)
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "Lookup failed, try again."})
		return
	}
	if listing == nil {
		e.reply(ctx, chatID, chat.OutboundMessage{Text: fmt.Sprintf("No listing #%d.", seq)})
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Listing #%d</b> — %s\n", listing.Seq, listing.TrackingCode)
	fmt.Fprintf(&b, "Status: %s\n", listing.Status)
	fmt.Fprintf(&b, "Seller: <code>%d</code> (%s)\n", listing.SellerTelegramID, listing.SellerContact)
	fmt.Fprintf(&b, "Category: %s / %s\n", listing.Category, listing.Subcategory)
	fmt.Fprintf(&b, "Price: %s\n\n", listing.Price)
	fmt.Fprintf(&b, "%s\n", listing.Description)
	if methods := listing.Methods(); len(methods) > 0 {
		details := listing.Details()
		b.WriteString("\nPayment methods:\n")
		for _, key := range methods {
			if detail := details[key]; detail != "" {
				fmt.Fprintf(&b, "• %s — %s\n", e.catalog.Label(key), detail)
			} else {
				fmt.Fprintf(&b, "• %s\n", e.catalog.Label(key))
			}
		}
	}
	fmt.Fprintf(&b, "\n/approve %d · /reject %d · /mark_sold %d", seq, seq, seq)

	out := chat.OutboundMessage{Text: b.String()}
	if images := listing.Images(); len(images) > 0 {
		out.PhotoID = images[0]
	}
	e.reply(ctx, chatID, out)
}

// adminFindOrder looks up one order by sequence number.
func (e *Engine) adminFindOrder(ctx context.Context, chatID int64, arg string) {
	seq, err := parseSeq(arg)
	if err != nil {
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "That is not a valid order number."})
		return
	}
	order, err := e.store.OrderBySeq(seq)
	if err != nil {
		e.logger.Printf("flow: find order %d: %v", seq, err)
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "Lookup failed, try again."})
		return
	}
	if order == nil {
		e.reply(ctx, chatID, chat.OutboundMessage{Text: fmt.Sprintf("No order #%d.", seq)})
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Order #%d</b> — %s\n", order.Seq, order.TrackingCode)
	fmt.Fprintf(&b, "Status: %s\n", order.Status)
	fmt.Fprintf(&b, "Buyer: <code>%d</code> (%s)\n", order.BuyerTelegramID, order.BuyerContact)
	fmt.Fprintf(&b, "Payment: %s\n", e.catalog.Label(order.PaymentMethod))

	listing, err := e.store.ListingByID(order.ListingID)
	if err != nil {
		e.logger.Printf("flow: order %d listing: %v", seq, err)
	}
	if listing != nil {
		fmt.Fprintf(&b, "\nListing #%d — %s — %s / %s — %s",
			listing.Seq, listing.TrackingCode, listing.Category, listing.Subcategory, listing.Price)
	}
	e.reply(ctx, chatID, chat.OutboundMessage{Text: b.String()})

	if order.ProofFileID != "" {
		e.reply(ctx, chatID, chat.OutboundMessage{
			PhotoID: order.ProofFileID,
			Text:    fmt.Sprintf("Payment proof for %s", order.TrackingCode),
		})
	}
}

// adminSetListingStatus handles /approve, /reject and /mark_sold. A reject
// may carry a free-text reason after the number, forwarded to the seller.
func (e *Engine) adminSetListingStatus(ctx context.Context, chatID int64, arg, status string) {
	var reason string
	if i := strings.IndexByte(arg, ' '); i >= 0 {
		arg, reason = arg[:i], strings.TrimSpace(arg[i+1:])
	}
	seq, err := parseSeq(arg)
	if err != nil {
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "That is not a valid listing number."})
		return
	}
	listing, err := e.store.ListingBySeq(seq)
	if err != nil {
		e.logger.Printf("flow: set status of listing %d: %v", seq, err)
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "Lookup failed, try again."})
		return
	}
	if listing == nil {
		e.reply(ctx, chatID, chat.OutboundMessage{Text: fmt.Sprintf("No listing #%d.", seq)})
		return
	}
	if err := e.store.UpdateListingStatus(listing.ID, status); err != nil {
		e.logger.Printf("flow: update listing %d to %s: %v", seq, status, err)
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "Update failed, try again."})
		return
	}
	e.reply(ctx, chatID, chat.OutboundMessage{
		Text: fmt.Sprintf("Listing #%d is now <b>%s</b>.", seq, status),
	})

	if status == models.ListingRejected && reason != "" {
		e.reply(ctx, listing.SellerTelegramID, chat.OutboundMessage{
			Text: fmt.Sprintf("Your listing <code>%s</code> was rejected: %s",
				listing.TrackingCode, reason),
		})
	}
}

// adminListListings prints a short index of listings in a status.
func (e *Engine) adminListListings(ctx context.Context, chatID int64, status string) {
	listings, err := e.store.ListingsByStatus(status, 30)
	if err != nil {
		e.logger.Printf("flow: list %s listings: %v", status, err)
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "Lookup failed, try again."})
		return
	}
	if len(listings) == 0 {
		e.reply(ctx, chatID, chat.OutboundMessage{
			Text:    fmt.Sprintf("No %s listings.", status),
			Choices: adminMenu(),
		})
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s listings</b>\n", titleCase(status))
	for _, l := range listings {
		fmt.Fprintf(&b, "• #%d %s — %s / %s — %s\n",
			l.Seq, l.TrackingCode, l.Category, l.Subcategory, l.Price)
	}
	e.reply(ctx, chatID, chat.OutboundMessage{Text: b.String(), Choices: adminMenu()})
}

// titleCase uppercases the first ASCII letter of a status word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// adminListOrders prints a short index of orders in a status.
func (e *Engine) adminListOrders(ctx context.Context, chatID int64, status string) {
	orders, err := e.store.OrdersByStatus(status, 30)
	if err != nil {
		e.logger.Printf("flow: list %s orders: %v", status, err)
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "Lookup failed, try again."})
		return
	}
	if len(orders) == 0 {
		e.reply(ctx, chatID, chat.OutboundMessage{
			Text:    fmt.Sprintf("No %s orders.", status),
			Choices: adminMenu(),
		})
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s orders</b>\n", titleCase(status))
	for _, o := range orders {
		fmt.Fprintf(&b, "• #%d %s — %s\n", o.Seq, o.TrackingCode, e.catalog.Label(o.PaymentMethod))
	}
	e.reply(ctx, chatID, chat.OutboundMessage{Text: b.String(), Choices: adminMenu()})
}
