// Package bot runs the long-lived marketplace daemon: the inbound message
// loop plus the scheduled operator digest.
package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/amanex/amanex/internal/chat"
	"github.com/amanex/amanex/internal/config"
	"github.com/amanex/amanex/internal/flow"
	"github.com/amanex/amanex/internal/models"
	"github.com/amanex/amanex/internal/notify"
	"github.com/amanex/amanex/internal/store"
)

// Daemon owns the adapter lifecycle and pumps inbound messages through the
// flow engine until its context is cancelled.
type Daemon struct {
	adapter  chat.Adapter
	engine   *flow.Engine
	store    *store.Store
	notifier *notify.Notifier
	cfg      *config.Config
	logger   *log.Logger
}

// Opts holds parameters for creating a Daemon.
type Opts struct {
	Adapter  chat.Adapter
	Engine   *flow.Engine
	Store    *store.Store
	Notifier *notify.Notifier
	Config   *config.Config
	Output   io.Writer // defaults to os.Stdout
}

// New creates a Daemon.
func New(opts Opts) (*Daemon, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: adapter is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("bot: engine is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: store is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("bot: notifier is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: config is required")
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		adapter:  opts.Adapter,
		engine:   opts.Engine,
		store:    opts.Store,
		notifier: opts.Notifier,
		cfg:      opts.Config,
		logger:   log.New(out, "", log.LstdFlags),
	}, nil
}

// Run connects the adapter and processes inbound messages until ctx is
// cancelled or the inbound channel closes. A panic while handling one
// message is recovered and logged; the loop keeps serving everyone else.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}
	defer d.adapter.Close()

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		return fmt.Errorf("bot: listen: %w", err)
	}

	if d.cfg.Digest.Enabled {
		go d.digestLoop(ctx)
	}

	d.logger.Printf("bot: serving")
	for {
		select {
		case <-ctx.Done():
			d.logger.Printf("bot: shutting down")
			return nil
		case msg, ok := <-inbound:
			if !ok {
				d.logger.Printf("bot: inbound channel closed")
				return nil
			}
			d.handle(ctx, msg)
		}
	}
}

func (d *Daemon) handle(ctx context.Context, msg chat.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("bot: panic handling message from %d: %v", msg.ActorID, r)
		}
	}()
	d.engine.Handle(ctx, msg)
}

// digestLoop sends the operator digest on the configured cron schedule.
func (d *Daemon) digestLoop(ctx context.Context) {
	for {
		wait, err := nextCronDuration(d.cfg.Digest.Cron, time.Now())
		if err != nil {
			d.logger.Printf("bot: digest schedule %q: %v", d.cfg.Digest.Cron, err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			d.sendDigest(ctx)
		}
	}
}

// sendDigest summarizes pending listings and paid orders for the operator.
func (d *Daemon) sendDigest(ctx context.Context) {
	pending, err := d.store.ListingsByStatus(models.ListingPending, 50)
	if err != nil {
		d.logger.Printf("bot: digest listings: %v", err)
		return
	}
	paid, err := d.store.OrdersByStatus(models.OrderPaid, 50)
	if err != nil {
		d.logger.Printf("bot: digest orders: %v", err)
		return
	}
	if len(pending) == 0 && len(paid) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("📋 <b>Daily digest</b>\n")
	if len(pending) > 0 {
		fmt.Fprintf(&b, "\n%d listing(s) awaiting review:\n", len(pending))
		for _, l := range pending {
			fmt.Fprintf(&b, "• #%d %s — %s / %s\n", l.Seq, l.TrackingCode, l.Category, l.Subcategory)
		}
	}
	if len(paid) > 0 {
		fmt.Fprintf(&b, "\n%d order(s) awaiting settlement:\n", len(paid))
		for _, o := range paid {
			fmt.Fprintf(&b, "• #%d %s\n", o.Seq, o.TrackingCode)
		}
	}
	d.notifier.Digest(ctx, b.String())
}
