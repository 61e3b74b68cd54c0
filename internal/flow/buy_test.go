package flow

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/amanex/amanex/internal/models"
	"github.com/amanex/amanex/internal/store"
)

func seedListing(t *testing.T, h *testHarness, status string) *models.Listing {
	t.Helper()
	listing, err := h.store.CreateListing(store.ListingParams{
		SellerTelegramID: 20,
		Category:         "games",
		Subcategory:      "PUBG Mobile",
		Description:      "level 80, many skins",
		Images:           []string{"img-1"},
		Price:            "20 USDT",
		Methods:          []string{"syriatel"},
		SellerContact:    "@seller",
		Status:           status,
	})
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return listing
}

func TestFullBuyFlow(t *testing.T) {
	h := newTestHarness(t)
	const buyer = 30
	listing := seedListing(t, h, models.ListingActive)

	reply := h.say(t, buyer, "📥 Buy Account")
	wantContains(t, reply, "looking for")

	reply = h.say(t, buyer, "🎮 Games")
	wantContains(t, reply, "Which one")

	h.say(t, buyer, "PUBG Mobile")
	msgs := h.adapter.SentTo(buyer)
	card := msgs[len(msgs)-1]
	if card.Action == nil {
		t.Fatal("listing card should carry an inline Buy button")
	}
	wantData := fmt.Sprintf("buy_%d", listing.ID)
	if card.Action.Data != wantData {
		t.Errorf("Action.Data = %q, want %q", card.Action.Data, wantData)
	}
	if card.PhotoID != "img-1" {
		t.Errorf("card PhotoID = %q, want img-1", card.PhotoID)
	}

	h.tapCallback(t, buyer, wantData)
	reply = h.lastTo(t, buyer)
	wantContains(t, reply, "How will you pay")

	reply = h.say(t, buyer, "MTN Cash")
	wantContains(t, reply, "MTN Cash")
	wantContains(t, reply, "proof")

	// Text instead of a photo re-prompts.
	reply = h.say(t, buyer, "i paid, trust me")
	wantContains(t, reply, "photo")

	reply = h.sendPhoto(t, buyer, "proof-1")
	wantContains(t, reply, "reach you")

	reply = h.say(t, buyer, "@happy_buyer")
	wantContains(t, reply, "tracking code")

	if h.engine.states.Get(buyer) != nil {
		t.Error("conversation should be cleared after commit")
	}

	order, err := h.store.OrderBySeq(1)
	if err != nil {
		t.Fatalf("OrderBySeq: %v", err)
	}
	if order == nil {
		t.Fatal("order was not committed")
	}
	if order.ListingID != listing.ID {
		t.Errorf("ListingID = %d, want %d", order.ListingID, listing.ID)
	}
	if order.PaymentMethod != "mtn" {
		t.Errorf("PaymentMethod = %q, want mtn", order.PaymentMethod)
	}
	if order.ProofFileID != "proof-1" {
		t.Errorf("ProofFileID = %q, want proof-1", order.ProofFileID)
	}
	if order.Status != models.OrderPaid {
		t.Errorf("Status = %q, want paid", order.Status)
	}
	codeRE := regexp.MustCompile(`^001-B\d{8}$`)
	if !codeRE.MatchString(order.TrackingCode) {
		t.Errorf("TrackingCode = %q, want 001-B<date>", order.TrackingCode)
	}

	// Ordering never flips the listing status; handover is the operator's.
	got, _ := h.store.ListingByID(listing.ID)
	if got.Status != models.ListingActive {
		t.Errorf("listing status = %q after order, want active", got.Status)
	}

	if len(h.adapter.SentTo(testAdminID)) == 0 {
		t.Error("operator was not notified of the order")
	}
}

func TestBuyCatchAllCategoryNotBrowsable(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 30, "📥 Buy Account")
	reply := h.say(t, 30, "✏️ Something Else")
	wantContains(t, reply, "specific category")
	if h.engine.states.Get(30) != nil {
		t.Error("catch-all pick should end the buy conversation")
	}
}

func TestBuyEmptyShelf(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 30, "📥 Buy Account")
	h.say(t, 30, "🎮 Games")
	reply := h.say(t, 30, "Free Fire")
	wantContains(t, reply, "No Free Fire accounts")
	if h.engine.states.Get(30) != nil {
		t.Error("empty shelf should end the buy conversation")
	}
}

func TestBuyCallbackOnStaleListing(t *testing.T) {
	h := newTestHarness(t)
	listing := seedListing(t, h, models.ListingSold)

	h.tapCallback(t, 30, fmt.Sprintf("buy_%d", listing.ID))

	acks := h.adapter.Acks()
	if len(acks) != 1 || acks[0] == "" {
		t.Fatalf("Acks() = %v, want one rejection toast", acks)
	}
	if h.engine.states.Get(30) != nil {
		t.Error("stale callback must not open a conversation")
	}
}

func TestBuyCallbackOnMissingListing(t *testing.T) {
	h := newTestHarness(t)
	h.tapCallback(t, 30, "buy_12345")
	acks := h.adapter.Acks()
	if len(acks) != 1 || acks[0] == "" {
		t.Fatalf("Acks() = %v, want one rejection toast", acks)
	}
}

func TestBuyCommitLosesRace(t *testing.T) {
	h := newTestHarness(t)
	const buyer = 30
	listing := seedListing(t, h, models.ListingActive)

	h.tapCallback(t, buyer, fmt.Sprintf("buy_%d", listing.ID))
	h.say(t, buyer, "MTN Cash")
	h.sendPhoto(t, buyer, "proof-1")

	// The listing is sold out from under the buyer before the final step.
	if err := h.store.UpdateListingStatus(listing.ID, models.ListingSold); err != nil {
		t.Fatalf("UpdateListingStatus: %v", err)
	}

	reply := h.say(t, buyer, "@happy_buyer")
	wantContains(t, reply, "just sold or removed")

	order, err := h.store.OrderBySeq(1)
	if err != nil {
		t.Fatalf("OrderBySeq: %v", err)
	}
	if order != nil {
		t.Error("no order should exist after a lost race")
	}
	if h.engine.states.Get(buyer) != nil {
		t.Error("conversation should be cleared after a failed commit")
	}
}

func TestBuyIncompleteStateGuard(t *testing.T) {
	h := newTestHarness(t)
	const buyer = 30

	// Force a corrupted state straight to the final step.
	h.engine.states.Put(buyer, &BuyState{Step: BuyAwaitContact})
	reply := h.say(t, buyer, "@buyer")
	wantContains(t, reply, "unexpected")
	if h.engine.states.Get(buyer) != nil {
		t.Error("guard should reset the conversation")
	}
}

func TestBuyCancelMidFlow(t *testing.T) {
	h := newTestHarness(t)
	listing := seedListing(t, h, models.ListingActive)

	h.tapCallback(t, 30, fmt.Sprintf("buy_%d", listing.ID))
	reply := h.say(t, 30, "❌ Cancel")
	wantContains(t, reply, "Cancelled")
	if h.engine.states.Get(30) != nil {
		t.Error("cancel should clear the conversation")
	}
}
