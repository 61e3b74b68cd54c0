package flow

import (
	"regexp"
	"testing"

	"github.com/amanex/amanex/internal/models"
)

func TestFullSellFlow(t *testing.T) {
	h := newTestHarness(t)
	const seller = 10

	reply := h.say(t, seller, "📤 Sell Account")
	wantContains(t, reply, "selling")

	reply = h.say(t, seller, "🎮 Games")
	wantContains(t, reply, "Which one")

	reply = h.say(t, seller, "PUBG Mobile")
	wantContains(t, reply, "Describe")

	reply = h.say(t, seller, "Level 80, many skins, full access")
	wantContains(t, reply, "screenshot")

	reply = h.sendPhoto(t, seller, "photo-1")
	wantContains(t, reply, "1 so far")

	reply = h.say(t, seller, "✅ Done")
	wantContains(t, reply, "price")
	wantContains(t, reply, "5%")

	reply = h.say(t, seller, "20 USDT")
	wantContains(t, reply, "payment methods")

	reply = h.say(t, seller, "SyriaTel Cash")
	wantContains(t, reply, "SyriaTel")

	reply = h.say(t, seller, "0999123456")
	wantContains(t, reply, "Saved")

	reply = h.say(t, seller, "✅ Done")
	wantContains(t, reply, "reach you")

	reply = h.say(t, seller, "@pubg_seller")
	wantContains(t, reply, "tracking code")

	if h.engine.states.Get(seller) != nil {
		t.Error("conversation should be cleared after commit")
	}

	listing, err := h.store.ListingBySeq(1)
	if err != nil {
		t.Fatalf("ListingBySeq: %v", err)
	}
	if listing == nil {
		t.Fatal("listing was not committed")
	}
	if listing.Category != "games" || listing.Subcategory != "PUBG Mobile" {
		t.Errorf("category = %s/%s, want games/PUBG Mobile", listing.Category, listing.Subcategory)
	}
	if listing.Price != "20 USDT" {
		t.Errorf("Price = %q, want %q", listing.Price, "20 USDT")
	}
	if listing.Status != models.ListingActive {
		t.Errorf("Status = %q, want active", listing.Status)
	}
	if got := listing.Images(); len(got) != 1 || got[0] != "photo-1" {
		t.Errorf("Images() = %v, want [photo-1]", got)
	}
	if got := listing.Methods(); len(got) != 1 || got[0] != "syriatel" {
		t.Errorf("Methods() = %v, want [syriatel]", got)
	}
	if got := listing.Details()["syriatel"]; got != "0999123456" {
		t.Errorf("Details()[syriatel] = %q, want 0999123456", got)
	}
	if listing.SellerContact != "@pubg_seller" {
		t.Errorf("SellerContact = %q", listing.SellerContact)
	}

	codeRE := regexp.MustCompile(`^001-S\d{8}$`)
	if !codeRE.MatchString(listing.TrackingCode) {
		t.Errorf("TrackingCode = %q, want 001-S<date>", listing.TrackingCode)
	}

	// Operator got the new-listing notification with the photo attached.
	notices := h.adapter.SentTo(testAdminID)
	if len(notices) == 0 {
		t.Fatal("operator was not notified")
	}
	if notices[0].PhotoID != "photo-1" {
		t.Errorf("notification PhotoID = %q, want photo-1", notices[0].PhotoID)
	}
}

func TestSellCatchAllSkipsSubcategory(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	reply := h.say(t, 10, "✏️ Something Else")
	wantContains(t, reply, "Describe")
}

func TestSellBackReturnsToCategories(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	h.say(t, 10, "🎮 Games")
	reply := h.say(t, 10, "⬅️ Back")
	wantContains(t, reply, "selling")

	s, ok := h.engine.states.Get(10).(*SellState)
	if !ok {
		t.Fatal("conversation should still be a sell flow")
	}
	if s.Step != SellChooseCategory || s.Category != "" {
		t.Errorf("state = step %d category %q, want category step with no category", s.Step, s.Category)
	}
}

func TestSellRequiresAtLeastOnePhoto(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	h.say(t, 10, "🎮 Games")
	h.say(t, 10, "PUBG Mobile")
	h.say(t, 10, "desc")
	reply := h.say(t, 10, "✅ Done")
	wantContains(t, reply, "At least one screenshot")

	s := h.engine.states.Get(10).(*SellState)
	if s.Step != SellPhotos {
		t.Errorf("Step = %d, want SellPhotos", s.Step)
	}
}

func TestSellDoneIsCaseInsensitive(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	h.say(t, 10, "🎮 Games")
	h.say(t, 10, "PUBG Mobile")
	h.say(t, 10, "desc")
	h.sendPhoto(t, 10, "p1")
	reply := h.say(t, 10, "done")
	wantContains(t, reply, "price")
}

func TestSellRequiresPaymentMethod(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	h.say(t, 10, "🎮 Games")
	h.say(t, 10, "PUBG Mobile")
	h.say(t, 10, "desc")
	h.sendPhoto(t, 10, "p1")
	h.say(t, 10, "✅ Done")
	h.say(t, 10, "20 USDT")
	reply := h.say(t, 10, "✅ Done")
	wantContains(t, reply, "at least one payment method")
}

func TestSellRejectsDuplicateMethod(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	h.say(t, 10, "🎮 Games")
	h.say(t, 10, "PUBG Mobile")
	h.say(t, 10, "desc")
	h.sendPhoto(t, 10, "p1")
	h.say(t, 10, "✅ Done")
	h.say(t, 10, "20 USDT")
	h.say(t, 10, "MTN Cash")
	h.say(t, 10, "0944555666")
	reply := h.say(t, 10, "MTN Cash")
	wantContains(t, reply, "already selected")
}

func TestSellCancelClearsState(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	h.say(t, 10, "🎮 Games")
	reply := h.say(t, 10, "❌ Cancel")
	wantContains(t, reply, "Cancelled")

	if h.engine.states.Get(10) != nil {
		t.Error("cancel should clear the conversation")
	}
	listings, err := h.store.ListingsBySeller(10, 10)
	if err != nil {
		t.Fatalf("ListingsBySeller: %v", err)
	}
	if len(listings) != 0 {
		t.Error("cancelled flow must not persist a listing")
	}
}

func TestSellUnrecognizedCategoryReprompts(t *testing.T) {
	h := newTestHarness(t)

	h.say(t, 10, "📤 Sell Account")
	reply := h.say(t, 10, "motorcycles")
	wantContains(t, reply, "pick a category")

	s := h.engine.states.Get(10).(*SellState)
	if s.Step != SellChooseCategory {
		t.Errorf("Step = %d, want SellChooseCategory", s.Step)
	}
}

func TestSequentialListingsGetSequentialCodes(t *testing.T) {
	h := newTestHarness(t)

	runSell := func(seller int64) {
		h.say(t, seller, "📤 Sell Account")
		h.say(t, seller, "🎮 Games")
		h.say(t, seller, "PUBG Mobile")
		h.say(t, seller, "desc")
		h.sendPhoto(t, seller, "p")
		h.say(t, seller, "✅ Done")
		h.say(t, seller, "10 USDT")
		h.say(t, seller, "MTN Cash")
		h.say(t, seller, "0944000111")
		h.say(t, seller, "✅ Done")
		h.say(t, seller, "@seller")
	}
	runSell(10)
	runSell(11)

	first, _ := h.store.ListingBySeq(1)
	second, _ := h.store.ListingBySeq(2)
	if first == nil || second == nil {
		t.Fatal("expected two committed listings")
	}
	if first.TrackingCode == second.TrackingCode {
		t.Error("tracking codes must be unique")
	}
}
