package flow

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/amanex/amanex/internal/chat"
	"github.com/amanex/amanex/internal/config"
	"github.com/amanex/amanex/internal/models"
	"github.com/amanex/amanex/internal/notify"
	"github.com/amanex/amanex/internal/store"
)

// Engine routes inbound chat messages to the marketplace dialogues. One
// Engine serves all users; per-user position lives in the ConversationStore.
type Engine struct {
	store    *store.Store
	states   *ConversationStore
	adapter  chat.Adapter
	notifier *notify.Notifier
	catalog  *Catalog
	cfg      *config.Config
	logger   *log.Logger

	// backup runs a database backup and returns the destination path.
	// Nil disables the operator backup commands.
	backup func() (string, error)
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	Store    *store.Store
	States   *ConversationStore
	Adapter  chat.Adapter
	Notifier *notify.Notifier
	Config   *config.Config
	Backup   func() (string, error)
	Output   io.Writer // defaults to os.Stdout
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("flow: store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("flow: adapter is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("flow: notifier is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("flow: config is required")
	}
	states := opts.States
	if states == nil {
		states = NewConversationStore()
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &Engine{
		store:    opts.Store,
		states:   states,
		adapter:  opts.Adapter,
		notifier: opts.Notifier,
		catalog:  NewCatalog(opts.Config.Payments),
		cfg:      opts.Config,
		logger:   log.New(out, "", log.LstdFlags),
		backup:   opts.Backup,
	}, nil
}

// Handle processes one inbound message end to end. It never returns an
// error: user-visible failures become chat replies, internal ones are logged.
func (e *Engine) Handle(ctx context.Context, msg chat.InboundMessage) {
	if _, err := e.store.FindOrCreateUser(msg.ActorID, msg.Username, msg.FullName); err != nil {
		e.logger.Printf("flow: register user %d: %v", msg.ActorID, err)
	}

	if msg.Callback != "" {
		e.handleCallback(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		e.handleCommand(ctx, msg, text)
		return
	}

	if state := e.states.Get(msg.ActorID); state != nil {
		switch s := state.(type) {
		case *SellState:
			e.handleSell(ctx, msg, s)
		case *BuyState:
			e.handleBuy(ctx, msg, s)
		case *AdminState:
			e.handleAdmin(ctx, msg, s)
		case *SupportState:
			e.handleSupport(ctx, msg)
		}
		return
	}

	e.handleIdle(ctx, msg, text)
}

// handleCommand dispatches slash commands. /start is available to everyone;
// the rest are operator-only and silently ignored for other users.
func (e *Engine) handleCommand(ctx context.Context, msg chat.InboundMessage, text string) {
	cmd, arg := splitCommand(text)

	if cmd == "/start" {
		e.states.Reset(msg.ActorID)
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text: "👋 Welcome to <b>Amanex</b> — the safe middleman for buying and " +
				"selling accounts.\n\nUse the menu below to get started.",
			Choices: mainMenu(),
		})
		return
	}

	if msg.ActorID != e.cfg.AdminID {
		// Operator commands from anyone else are dropped without a trace;
		// genuinely unknown commands get a gentle nudge.
		if !isAdminCommand(cmd) {
			e.reply(ctx, msg.ChatID, chat.OutboundMessage{
				Text:    "Unknown command. Use the menu below, or /start to reset.",
				Choices: mainMenu(),
			})
		}
		return
	}

	switch cmd {
	case "/admin":
		e.states.Put(msg.ActorID, &AdminState{Step: AdminMenu})
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "🛠 Admin panel",
			Choices: adminMenu(),
		})
	case "/backupdb":
		e.runBackup(ctx, msg.ChatID)
	case "/findlist":
		e.adminFindListing(ctx, msg.ChatID, arg)
	case "/findorder":
		e.adminFindOrder(ctx, msg.ChatID, arg)
	case "/approve":
		e.adminSetListingStatus(ctx, msg.ChatID, arg, models.ListingActive)
	case "/reject":
		e.adminSetListingStatus(ctx, msg.ChatID, arg, models.ListingRejected)
	case "/mark_sold":
		e.adminSetListingStatus(ctx, msg.ChatID, arg, models.ListingSold)
	default:
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{Text: "Unknown admin command."})
	}
}

// isAdminCommand reports whether cmd is operator-only.
func isAdminCommand(cmd string) bool {
	switch cmd {
	case "/admin", "/backupdb", "/findlist", "/findorder", "/approve", "/reject", "/mark_sold":
		return true
	}
	return false
}

// handleIdle handles main-menu button presses from users with no active
// conversation.
func (e *Engine) handleIdle(ctx context.Context, msg chat.InboundMessage, text string) {
	switch {
	case matchesButton(text, BtnSell):
		e.startSell(ctx, msg)
	case matchesButton(text, BtnBuy):
		e.startBuy(ctx, msg)
	case matchesButton(text, BtnMyActivity):
		e.showMyActivity(ctx, msg)
	case matchesButton(text, BtnTerms):
		e.showTerms(ctx, msg)
	case matchesButton(text, BtnSupport):
		e.startSupport(ctx, msg)
	default:
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "Please use the menu below, or /start to reset.",
			Choices: mainMenu(),
		})
	}
}

// showMyActivity lists the user's own listings and orders.
func (e *Engine) showMyActivity(ctx context.Context, msg chat.InboundMessage) {
	listings, err := e.store.ListingsBySeller(msg.ActorID, 20)
	if err != nil {
		e.logger.Printf("flow: my activity listings for %d: %v", msg.ActorID, err)
	}
	orders, err := e.store.OrdersByBuyer(msg.ActorID, 20)
	if err != nil {
		e.logger.Printf("flow: my activity orders for %d: %v", msg.ActorID, err)
	}

	if len(listings) == 0 && len(orders) == 0 {
		e.reply(ctx, msg.ChatID, chat.OutboundMessage{
			Text:    "You have no listings or orders yet.",
			Choices: mainMenu(),
		})
		return
	}

	var b strings.Builder
	if len(listings) > 0 {
		b.WriteString("<b>Your listings</b>\n")
		for _, l := range listings {
			fmt.Fprintf(&b, "• %s — %s / %s — %s — %s\n",
				l.TrackingCode, l.Category, l.Subcategory, l.Price, l.Status)
		}
	}
	if len(orders) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("<b>Your orders</b>\n")
		for _, o := range orders {
			fmt.Fprintf(&b, "• %s — %s — %s\n",
				o.TrackingCode, e.catalog.Label(o.PaymentMethod), o.Status)
		}
	}
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{Text: b.String(), Choices: mainMenu()})
}

// showTerms sends the terms of service.
func (e *Engine) showTerms(ctx context.Context, msg chat.InboundMessage) {
	e.reply(ctx, msg.ChatID, chat.OutboundMessage{
		Text: "📄 <b>Terms of Service</b>\n\n" +
			"• Amanex acts as a middleman between buyer and seller.\n" +
			"• A 5% commission is deducted from the sale price.\n" +
			"• Funds are released to the seller only after the buyer confirms receipt.\n" +
			"• Fraudulent listings are removed and their sellers banned.\n" +
			"• Disputes are resolved by the operator; the decision is final.",
		Choices: mainMenu(),
	})
}

// runBackup performs a database backup and reports the result.
func (e *Engine) runBackup(ctx context.Context, chatID int64) {
	if e.backup == nil {
		e.reply(ctx, chatID, chat.OutboundMessage{Text: "Backups are not available for this database."})
		return
	}
	path, err := e.backup()
	if err != nil {
		e.logger.Printf("flow: backup: %v", err)
		e.reply(ctx, chatID, chat.OutboundMessage{Text: fmt.Sprintf("Backup failed: %v", err)})
		return
	}
	e.reply(ctx, chatID, chat.OutboundMessage{Text: fmt.Sprintf("💾 Backup written to <code>%s</code>", path)})
}

// reply sends an outbound message to a chat, logging delivery failures.
func (e *Engine) reply(ctx context.Context, chatID int64, msg chat.OutboundMessage) {
	msg.ChatID = chatID
	if err := e.adapter.Send(ctx, msg); err != nil {
		e.logger.Printf("flow: send to %d: %v", chatID, err)
	}
}

// splitCommand splits "/findlist 12" into "/findlist" and "12". The command
// is lowercased and any @botname suffix is dropped.
func splitCommand(text string) (cmd, arg string) {
	cmd = text
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmd, arg = text[:i], strings.TrimSpace(text[i+1:])
	}
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), arg
}

// parseSeq parses a sequence-number argument.
func parseSeq(arg string) (int64, error) {
	seq, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("flow: %q is not a valid number", arg)
	}
	return seq, nil
}
