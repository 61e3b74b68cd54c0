package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amanex/amanex/internal/db"
	"github.com/amanex/amanex/internal/store"
)

func TestStart_NilStore(t *testing.T) {
	err := Start(context.Background(), StartOpts{Store: nil})
	if err == nil {
		t.Fatal("expected error for nil store")
	}
	if !strings.Contains(err.Error(), "store is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "store is required")
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st, err := store.New(store.Opts{DB: gdb})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, st)
	return router, st
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRootKeepalive(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Bot is running!") {
		t.Errorf("body = %q, want keepalive text", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestListingsAPIHidesContacts(t *testing.T) {
	router, st := newTestRouter(t)

	if _, err := st.CreateListing(store.ListingParams{
		SellerTelegramID: 10,
		Category:         "games",
		Subcategory:      "PUBG Mobile",
		Price:            "20 USDT",
		SellerContact:    "@secret_seller",
		Status:           "active",
	}); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	w := get(router, "/api/listings")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "PUBG Mobile") {
		t.Errorf("body = %q, want the listing", body)
	}
	if strings.Contains(body, "secret_seller") {
		t.Error("listings API must not expose seller contacts")
	}
}

func TestListingsAPIStatusFilter(t *testing.T) {
	router, st := newTestRouter(t)

	if _, err := st.CreateListing(store.ListingParams{
		SellerTelegramID: 10,
		Category:         "games",
		Subcategory:      "Free Fire",
		Status:           "pending",
	}); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	w := get(router, "/api/listings")
	if strings.Contains(w.Body.String(), "Free Fire") {
		t.Error("default filter should only return active listings")
	}

	w = get(router, "/api/listings?status=pending")
	if !strings.Contains(w.Body.String(), "Free Fire") {
		t.Error("status filter should surface pending listings")
	}
}

func TestStatsAPI(t *testing.T) {
	router, st := newTestRouter(t)

	if _, err := st.CreateListing(store.ListingParams{
		SellerTelegramID: 10,
		Category:         "games",
		Subcategory:      "PUBG Mobile",
		Status:           "active",
	}); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	w := get(router, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var stats map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats["listings_active"] != 1 {
		t.Errorf("listings_active = %d, want 1", stats["listings_active"])
	}
	if stats["orders_paid"] != 0 {
		t.Errorf("orders_paid = %d, want 0", stats["orders_paid"])
	}
}

func TestUnknownRoute_Returns404(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/nonexistent")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
