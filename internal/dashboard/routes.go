package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amanex/amanex/internal/models"
	"github.com/amanex/amanex/internal/store"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, st *store.Store) {
	// Keepalive page for uptime pingers.
	router.GET("/", handleRoot())
	router.GET("/healthz", handleHealth())

	api := router.Group("/api")
	api.GET("/listings", handleListings(st))
	api.GET("/stats", handleStats(st))
}

func handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "Bot is running!")
	}
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// listingView is the public shape of a listing; contact details stay out.
type listingView struct {
	Seq          int64  `json:"seq"`
	TrackingCode string `json:"tracking_code"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	Price        string `json:"price"`
	Status       string `json:"status"`
}

func handleListings(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.DefaultQuery("status", models.ListingActive)
		listings, err := st.ListingsByStatus(status, 100)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		views := make([]listingView, 0, len(listings))
		for _, l := range listings {
			views = append(views, listingView{
				Seq:          l.Seq,
				TrackingCode: l.TrackingCode,
				Category:     l.Category,
				Subcategory:  l.Subcategory,
				Price:        l.Price,
				Status:       l.Status,
			})
		}
		c.JSON(http.StatusOK, gin.H{"listings": views})
	}
}

func handleStats(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := gin.H{}
		for _, status := range []string{
			models.ListingPending, models.ListingActive, models.ListingSold,
		} {
			listings, err := st.ListingsByStatus(status, 1000)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
				return
			}
			stats["listings_"+status] = len(listings)
		}
		orders, err := st.OrdersByStatus(models.OrderPaid, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		stats["orders_paid"] = len(orders)
		c.JSON(http.StatusOK, stats)
	}
}
