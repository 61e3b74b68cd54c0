// Package notify delivers operator notifications for marketplace events.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/amanex/amanex/internal/chat"
	"github.com/amanex/amanex/internal/models"
)

// Notifier sends event summaries to the operator chat. Delivery is
// best-effort: failures are logged, never propagated, so a flaky operator
// chat cannot fail a user's commit.
type Notifier struct {
	adapter     chat.Adapter
	operatorID  int64
	methodLabel func(key string) string
	logger      *log.Logger
}

// Opts holds parameters for creating a Notifier.
type Opts struct {
	Adapter    chat.Adapter
	OperatorID int64
	// MethodLabel resolves a payment method key to its display label.
	// Defaults to the identity function.
	MethodLabel func(key string) string
	Output      io.Writer // defaults to os.Stdout
}

// New creates a Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("notify: adapter is required")
	}
	if opts.OperatorID == 0 {
		return nil, fmt.Errorf("notify: operator id is required")
	}
	label := opts.MethodLabel
	if label == nil {
		label = func(key string) string { return key }
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &Notifier{
		adapter:     opts.Adapter,
		operatorID:  opts.OperatorID,
		methodLabel: label,
		logger:      log.New(out, "", log.LstdFlags),
	}, nil
}

// NewListing announces a committed listing to the operator, with the first
// image attached when present.
func (n *Notifier) NewListing(ctx context.Context, listing *models.Listing) {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 <b>New listing #%d</b> — %s\n", listing.Seq, listing.TrackingCode)
	fmt.Fprintf(&b, "Seller: <code>%d</code>\n", listing.SellerTelegramID)
	fmt.Fprintf(&b, "Category: %s / %s\n", listing.Category, listing.Subcategory)
	fmt.Fprintf(&b, "Price: %s\n", listing.Price)
	fmt.Fprintf(&b, "Status: %s\n\n", listing.Status)
	fmt.Fprintf(&b, "%s\n", listing.Description)

	if methods := listing.Methods(); len(methods) > 0 {
		b.WriteString("\nPayment methods:\n")
		details := listing.Details()
		for _, key := range methods {
			if detail := details[key]; detail != "" {
				fmt.Fprintf(&b, "• %s — %s\n", n.methodLabel(key), detail)
			} else {
				fmt.Fprintf(&b, "• %s\n", n.methodLabel(key))
			}
		}
	}
	fmt.Fprintf(&b, "\nContact: %s", listing.SellerContact)

	msg := chat.OutboundMessage{ChatID: n.operatorID, Text: b.String()}
	images := listing.Images()
	if len(images) > 0 {
		msg.PhotoID = images[0]
	}
	n.send(ctx, msg, "new listing")

	// Remaining images follow as bare photos.
	if len(images) > 1 {
		for _, img := range images[1:] {
			n.send(ctx, chat.OutboundMessage{ChatID: n.operatorID, PhotoID: img}, "listing image")
		}
	}
}

// NewOrder announces a committed order to the operator, then forwards the
// payment proof as a separate photo.
func (n *Notifier) NewOrder(ctx context.Context, order *models.Order, listing *models.Listing) {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 <b>New order #%d</b> — %s\n", order.Seq, order.TrackingCode)
	fmt.Fprintf(&b, "Buyer: <code>%d</code>\n", order.BuyerTelegramID)
	fmt.Fprintf(&b, "Payment: %s\n", n.methodLabel(order.PaymentMethod))
	fmt.Fprintf(&b, "Buyer contact: %s\n", order.BuyerContact)
	if listing != nil {
		fmt.Fprintf(&b, "\nListing #%d — %s\n", listing.Seq, listing.TrackingCode)
		fmt.Fprintf(&b, "Category: %s / %s\n", listing.Category, listing.Subcategory)
		fmt.Fprintf(&b, "Price: %s\n", listing.Price)
		fmt.Fprintf(&b, "Seller contact: %s", listing.SellerContact)
	}
	n.send(ctx, chat.OutboundMessage{ChatID: n.operatorID, Text: b.String()}, "new order")

	if order.ProofFileID != "" {
		n.send(ctx, chat.OutboundMessage{
			ChatID:  n.operatorID,
			PhotoID: order.ProofFileID,
			Text:    fmt.Sprintf("Payment proof for %s", order.TrackingCode),
		}, "payment proof")
	}
}

// SupportTicket forwards a support message to the operator.
func (n *Notifier) SupportTicket(ctx context.Context, ticket *models.SupportTicket) {
	text := fmt.Sprintf("☎️ <b>Support ticket #%d</b>\nFrom: <code>%d</code>\n\n%s",
		ticket.ID, ticket.UserTelegramID, ticket.Message)
	n.send(ctx, chat.OutboundMessage{ChatID: n.operatorID, Text: text}, "support ticket")
}

// Digest sends an arbitrary operator summary, used by the scheduled digest.
func (n *Notifier) Digest(ctx context.Context, text string) {
	n.send(ctx, chat.OutboundMessage{ChatID: n.operatorID, Text: text}, "digest")
}

func (n *Notifier) send(ctx context.Context, msg chat.OutboundMessage, kind string) {
	if err := n.adapter.Send(ctx, msg); err != nil {
		n.logger.Printf("notify: send %s to operator %d: %v", kind, n.operatorID, err)
	}
}
