package flow

import (
	"context"
	"fmt"
	"testing"

	"github.com/amanex/amanex/internal/chat"
	"github.com/amanex/amanex/internal/models"
	"github.com/amanex/amanex/internal/store"
)

func TestAdminCommandsSilentlyIgnoredForUsers(t *testing.T) {
	h := newTestHarness(t)
	listing := seedListing(t, h, models.ListingPending)

	for _, cmd := range []string{"/admin", "/backupdb", "/approve 1", "/findlist 1"} {
		h.engine.Handle(context.Background(), chat.InboundMessage{
			ActorID: 10, ChatID: 10, Text: cmd,
		})
	}
	if got := h.adapter.SentTo(10); len(got) != 0 {
		t.Errorf("operator commands from a user produced %d replies, want silence", len(got))
	}
	if h.engine.states.Get(10) != nil {
		t.Error("non-operator must not enter the admin panel")
	}
	got, _ := h.store.ListingBySeq(listing.Seq)
	if got.Status != models.ListingPending {
		t.Errorf("status = %q, a user's /approve must have no effect", got.Status)
	}
}

func TestUnknownCommandNudgesUsers(t *testing.T) {
	h := newTestHarness(t)
	reply := h.say(t, 10, "/frobnicate")
	wantContains(t, reply, "Unknown command")
}

func TestAdminPanelOpens(t *testing.T) {
	h := newTestHarness(t)

	reply := h.say(t, testAdminID, "/admin")
	wantContains(t, reply, "Admin panel")
	if _, ok := h.engine.states.Get(testAdminID).(*AdminState); !ok {
		t.Error("operator should be in the admin flow")
	}
}

func TestAdminFindListingViaPanel(t *testing.T) {
	h := newTestHarness(t)
	listing := seedListing(t, h, models.ListingActive)

	h.say(t, testAdminID, "/admin")
	reply := h.say(t, testAdminID, "🔎 Find Listing")
	wantContains(t, reply, "listing number")

	h.say(t, testAdminID, fmt.Sprintf("%d", listing.Seq))
	msgs := h.adapter.SentTo(testAdminID)
	// Last message is the panel again; the record precedes it.
	record := msgs[len(msgs)-2]
	wantContains(t, record, listing.TrackingCode)
	wantContains(t, record, "/approve 1")

	s := h.engine.states.Get(testAdminID).(*AdminState)
	if s.Step != AdminMenu {
		t.Errorf("Step = %d, want AdminMenu after lookup", s.Step)
	}
}

func TestAdminFindListingRejectsGarbage(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, testAdminID, "/admin")
	h.say(t, testAdminID, "🔎 Find Listing")
	h.say(t, testAdminID, "twelve")
	msgs := h.adapter.SentTo(testAdminID)
	wantContains(t, msgs[len(msgs)-2], "not a valid")
}

func TestAdminQuickCommands(t *testing.T) {
	h := newTestHarness(t)
	listing := seedListing(t, h, models.ListingPending)

	reply := h.say(t, testAdminID, fmt.Sprintf("/approve %d", listing.Seq))
	wantContains(t, reply, "active")
	got, _ := h.store.ListingBySeq(listing.Seq)
	if got.Status != models.ListingActive {
		t.Errorf("status after /approve = %q, want active", got.Status)
	}

	reply = h.say(t, testAdminID, fmt.Sprintf("/mark_sold %d", listing.Seq))
	wantContains(t, reply, "sold")
	got, _ = h.store.ListingBySeq(listing.Seq)
	if got.Status != models.ListingSold {
		t.Errorf("status after /mark_sold = %q, want sold", got.Status)
	}

	reply = h.say(t, testAdminID, fmt.Sprintf("/reject %d", listing.Seq))
	got, _ = h.store.ListingBySeq(listing.Seq)
	if got.Status != models.ListingRejected {
		t.Errorf("status after /reject = %q, want rejected", got.Status)
	}

	reply = h.say(t, testAdminID, "/approve 999")
	wantContains(t, reply, "No listing")
}

func TestAdminRejectWithReasonNotifiesSeller(t *testing.T) {
	h := newTestHarness(t)
	listing := seedListing(t, h, models.ListingPending)

	h.say(t, testAdminID, fmt.Sprintf("/reject %d blurry screenshots", listing.Seq))

	got, _ := h.store.ListingBySeq(listing.Seq)
	if got.Status != models.ListingRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
	toSeller := h.adapter.SentTo(listing.SellerTelegramID)
	if len(toSeller) != 1 {
		t.Fatalf("seller got %d messages, want the rejection notice", len(toSeller))
	}
	wantContains(t, toSeller[0], "blurry screenshots")
	wantContains(t, toSeller[0], listing.TrackingCode)
}

func TestAdminFindOrderCommand(t *testing.T) {
	h := newTestHarness(t)
	listing := seedListing(t, h, models.ListingActive)

	order, err := h.store.CreateOrder(store.OrderParams{
		ListingID:       listing.ID,
		BuyerTelegramID: 30,
		PaymentMethod:   "mtn",
		ProofFileID:     "proof-1",
		BuyerContact:    "@buyer",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	h.say(t, testAdminID, fmt.Sprintf("/findorder %d", order.Seq))
	msgs := h.adapter.SentTo(testAdminID)
	// The proof photo follows the record.
	last := msgs[len(msgs)-1]
	if last.PhotoID != "proof-1" {
		t.Errorf("proof PhotoID = %q, want proof-1", last.PhotoID)
	}
	wantContains(t, msgs[len(msgs)-2], order.TrackingCode)
}

func TestAdminPendingList(t *testing.T) {
	h := newTestHarness(t)
	seedListing(t, h, models.ListingPending)

	h.say(t, testAdminID, "/admin")
	reply := h.say(t, testAdminID, "⏳ Pending Listings")
	wantContains(t, reply, "Pending listings")
	wantContains(t, reply, "#1")
}

func TestAdminCancelLeavesPanel(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, testAdminID, "/admin")
	reply := h.say(t, testAdminID, "❌ Cancel")
	wantContains(t, reply, "Left the admin panel")
	if h.engine.states.Get(testAdminID) != nil {
		t.Error("cancel should clear the admin conversation")
	}
}
